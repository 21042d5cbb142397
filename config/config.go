// Package config loads transync settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. built-in defaults (source locale en_GB, dir frontend/src/i18n)
//  2. top-level (YAML) or DEFAULT section (INI) settings of the config file
//  3. the "main" profile of the config file
//  4. the built-in preset of the selected profile, if any
//  5. the selected profile of the config file
//  6. TRANSYNC_* environment variables (a .env file in the project root is
//     read too, real environment variables win)
//  7. the credential store, for the API key only
//
// The config file is either .transync.yaml or the legacy INI file "config"
// with one section per profile:
//
//	[main]
//	host = https://translations.example.com
//	brand = acme
//	key = 0123456789
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

const (
	// DefaultProfile is the base profile every other profile inherits from.
	DefaultProfile = "main"
	// DefaultSourceLocale is the authoring locale of the main profile.
	DefaultSourceLocale = "en_GB"
	// DefaultDir is where catalogs live, relative to the project root.
	DefaultDir = "frontend/src/i18n"
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second
)

// Environment variables overriding file settings.
const (
	EnvHost    = "TRANSYNC_HOST"
	EnvBrand   = "TRANSYNC_BRAND"
	EnvKey     = "TRANSYNC_KEY"
	EnvDotFile = ".env"
)

// ErrUnknownProfile is returned when a profile is neither built in nor
// defined in the config file.
var ErrUnknownProfile = errors.New("unknown profile")

// Profile is one named group of settings as written in a config file.
// Empty fields inherit from the layer below.
type Profile struct {
	Host           string `yaml:"host,omitempty" ini:"host"`
	Brand          string `yaml:"brand,omitempty" ini:"brand"`
	Key            string `yaml:"key,omitempty" ini:"key"`
	SourceLocale   string `yaml:"source_locale,omitempty" ini:"source_locale"`
	FallbackLocale string `yaml:"fallback_locale,omitempty" ini:"fallback_locale"`
	// Dir is relative to the directory of the file that sets it.
	Dir string `yaml:"dir,omitempty" ini:"dir"`
	// Timeout is a Go duration string ("30s").
	Timeout string `yaml:"timeout,omitempty" ini:"timeout"`
	Proxy   string `yaml:"proxy,omitempty" ini:"proxy"`
}

// merge copies every non-empty field of o into p.
func (p *Profile) merge(o Profile) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&p.Host, o.Host)
	set(&p.Brand, o.Brand)
	set(&p.Key, o.Key)
	set(&p.SourceLocale, o.SourceLocale)
	set(&p.FallbackLocale, o.FallbackLocale)
	set(&p.Dir, o.Dir)
	set(&p.Timeout, o.Timeout)
	set(&p.Proxy, o.Proxy)
}

// Presets are built-in profiles. "filebrowser" pushes the brand's "en"
// catalog and is kept apart from "main" on purpose.
var Presets = map[string]Profile{
	DefaultProfile: {SourceLocale: DefaultSourceLocale},
	"filebrowser":  {Brand: "filebrowser", SourceLocale: "en"},
}

// Config is the resolved configuration handed to the workflows.
type Config struct {
	Profile        string
	Host           string
	Brand          string
	Key            string
	SourceLocale   string
	FallbackLocale string
	// Dir is the absolute catalog directory.
	Dir     string
	Timeout time.Duration
	Proxy   string
	// File is the config file that was read ("" when none was found).
	File string
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// Root is the project root (default ".").
	Root string
	// Profile selects a profile (default "main").
	Profile string
	// File is an explicit config file; auto-detected when empty.
	File string
	// LookupKey returns a stored API key for a host. It is consulted only
	// when no other layer provides a key.
	LookupKey func(host string) string
}

// Load resolves the configuration for one profile. The result is not
// validated; call Validate before using it.
func Load(opts LoadOptions) (*Config, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	profile := opts.Profile
	if profile == "" {
		profile = DefaultProfile
	}

	path := opts.File
	if path == "" {
		path = Detect(absRoot)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(absRoot, path)
	}

	var file *File
	if path != "" {
		file, err = ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	merged := Profile{Dir: DefaultDir, Timeout: DefaultTimeout.String()}
	merged.merge(Presets[DefaultProfile])
	dirBase := absRoot

	apply := func(p Profile, base string) {
		if p.Dir != "" {
			dirBase = base
		}
		merged.merge(p)
	}

	if file != nil {
		apply(file.Defaults, file.Dir())
		if p, ok := file.Profiles[DefaultProfile]; ok {
			apply(p, file.Dir())
		}
	}

	if profile != DefaultProfile {
		preset, hasPreset := Presets[profile]
		var fromFile Profile
		inFile := false
		if file != nil {
			fromFile, inFile = file.Profiles[profile]
		}
		if !hasPreset && !inFile {
			return nil, fmt.Errorf("config: %w %q (available: %s)",
				ErrUnknownProfile, profile, strings.Join(availableProfiles(file), ", "))
		}
		apply(preset, absRoot)
		if inFile {
			apply(fromFile, file.Dir())
		}
	}

	env, err := readEnv(absRoot)
	if err != nil {
		return nil, err
	}
	merged.merge(env)

	if merged.Key == "" && opts.LookupKey != nil {
		merged.Key = opts.LookupKey(strings.TrimRight(merged.Host, "/"))
	}

	timeout, err := time.ParseDuration(merged.Timeout)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timeout %q: %w", merged.Timeout, err)
	}

	dir := merged.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(dirBase, dir)
	}

	cfg := &Config{
		Profile:        profile,
		Host:           strings.TrimRight(merged.Host, "/"),
		Brand:          merged.Brand,
		Key:            merged.Key,
		SourceLocale:   merged.SourceLocale,
		FallbackLocale: merged.FallbackLocale,
		Dir:            filepath.Clean(dir),
		Timeout:        timeout,
		Proxy:          merged.Proxy,
	}
	if cfg.FallbackLocale == "" {
		cfg.FallbackLocale = cfg.SourceLocale
	}
	if file != nil {
		cfg.File = file.Path
	}
	return cfg, nil
}

// availableProfiles lists the built-in presets and the profiles of file,
// sorted and without duplicates.
func availableProfiles(file *File) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range Presets {
		add(name)
	}
	if file != nil {
		for _, name := range file.ProfileNames() {
			add(name)
		}
	}
	sort.Strings(names)
	return names
}

// readEnv collects TRANSYNC_* settings from the environment and from the
// optional .env file in root. Real environment variables win.
func readEnv(root string) (Profile, error) {
	dotenv, err := godotenv.Read(filepath.Join(root, EnvDotFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Profile{}, fmt.Errorf("config: reading %s: %w", EnvDotFile, err)
	}

	lookup := func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return dotenv[name]
	}

	return Profile{
		Host:  lookup(EnvHost),
		Brand: lookup(EnvBrand),
		Key:   lookup(EnvKey),
	}, nil
}

// Validate checks that the configuration can reach the service.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("config: host is required")
	}
	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("config: invalid host %q: %w", c.Host, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: invalid host %q: expected http(s)://host", c.Host)
	}

	if strings.TrimSpace(c.Brand) == "" {
		return fmt.Errorf("config: brand is required")
	}
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("config: key is required (config file, %s or 'transync auth set-key')", EnvKey)
	}

	for _, loc := range []struct{ name, value string }{
		{"source_locale", c.SourceLocale},
		{"fallback_locale", c.FallbackLocale},
	} {
		if _, err := ParseLocale(loc.value); err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", loc.name, loc.value, err)
		}
	}

	return nil
}

// ParseLocale parses a locale identifier such as "en_GB" or "pt-BR".
func ParseLocale(code string) (language.Tag, error) {
	if strings.TrimSpace(code) == "" {
		return language.Und, fmt.Errorf("empty locale")
	}
	return language.Parse(strings.ReplaceAll(code, "_", "-"))
}
