package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-ini/ini"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// File formats
// ---------------------------------------------------------------------------

// ProjectFileName is the YAML project config file.
const ProjectFileName = ".transync.yaml"

// LegacyFileName is the INI file used by the original sync scripts.
const LegacyFileName = "config"

// ProjectFile is the .transync.yaml structure. Top-level settings apply to
// every profile.
type ProjectFile struct {
	Profile  `yaml:",inline"`
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// File is a parsed config file in either format.
type File struct {
	Path string
	// Defaults apply to every profile (YAML top level, INI DEFAULT section).
	Defaults Profile
	Profiles map[string]Profile
}

// Dir returns the directory relative settings in the file are resolved from.
func (f *File) Dir() string {
	return filepath.Dir(f.Path)
}

// ProfileNames returns the profile names defined in the file, sorted.
func (f *File) ProfileNames() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// Detection and loading
// ---------------------------------------------------------------------------

// candidates lists the config files looked for in the project root, in order.
var candidates = []string{
	ProjectFileName,
	".transync.yml",
	LegacyFileName,
	filepath.Join(".translate", LegacyFileName),
}

// Detect returns the first config file found under root, or "".
func Detect(root string) string {
	for _, name := range candidates {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ReadFile parses a config file. Files ending in .yaml or .yml are YAML,
// anything else is INI.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = parseYAML(data)
	default:
		f, err = parseINI(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

func parseYAML(data []byte) (*File, error) {
	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	f := &File{
		Defaults: pf.Profile,
		Profiles: pf.Profiles,
	}
	if f.Profiles == nil {
		f.Profiles = make(map[string]Profile)
	}
	return f, nil
}

func parseINI(data []byte) (*File, error) {
	src, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true, IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, err
	}

	f := &File{
		Profiles: make(map[string]Profile),
	}
	for _, sec := range src.Sections() {
		var p Profile
		if err := sec.MapTo(&p); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", sec.Name(), err)
		}
		if sec.Name() == ini.DefaultSection {
			f.Defaults = p
			continue
		}
		f.Profiles[sec.Name()] = p
	}
	return f, nil
}
