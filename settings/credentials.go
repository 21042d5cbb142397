// Package settings stores transync API keys outside the project tree, so the
// key does not have to live in a committed config file.
//
// Keys are stored in the XDG data directory:
//
//	$XDG_DATA_HOME/transync/auth.json  (default: ~/.local/share/transync/auth.json)
//
// The file is a JSON object keyed by service host:
//
//	{
//	  "https://translations.example.com": {"type": "api", "key": "..."}
//	}
//
// File permissions are 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. TRANSYNC_KEY environment variable (or .env)
//  2. key in the project config file
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	dataDirName = "transync"
	fileName    = "auth.json"
)

// Info is one stored credential.
type Info struct {
	// Type is always "api" for now.
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}

// IsAPI returns true if this is an API key entry.
func (i *Info) IsAPI() bool {
	return i.Type == "api"
}

// Store holds all credentials, keyed by normalized host.
type Store map[string]*Info

// Hosts returns the stored hosts, sorted.
func (s Store) Hosts() []string {
	hosts := make([]string, 0, len(s))
	for h := range s {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// normalizeHost makes "https://x.example.com/" and "https://x.example.com"
// share one entry.
func normalizeHost(host string) string {
	return strings.TrimRight(strings.TrimSpace(host), "/")
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for transync.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	for host, info := range store {
		if info == nil {
			delete(store, host)
		}
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the entry for a host, or nil if not found.
func Get(host string) *Info {
	return Load()[normalizeHost(host)]
}

// SetAPIKey stores the API key for a host (upsert).
func SetAPIKey(host, key string) error {
	host = normalizeHost(host)
	if host == "" {
		return fmt.Errorf("host is required")
	}
	store := Load()
	store[host] = &Info{Type: "api", Key: key}
	return Save(store)
}

// GetAPIKey returns the stored API key for a host, or "".
func GetAPIKey(host string) string {
	info := Get(host)
	if info == nil || !info.IsAPI() {
		return ""
	}
	return info.Key
}

// Remove deletes the credentials of a host.
func Remove(host string) error {
	store := Load()
	host = normalizeHost(host)
	if _, ok := store[host]; !ok {
		return nil
	}
	delete(store, host)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
