package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	descriptorFile = "descriptor.yaml"
	activeFile     = ".active"
)

// ErrEnvNotFound indicates no saved environment has the requested name
var ErrEnvNotFound = errors.New("environment not found")

// Record is a saved environment
type Record struct {
	Descriptor *Descriptor `yaml:"descriptor"`
	SavedAt    string      `yaml:"saved_at"`
	Prefix     string      `yaml:"prefix,omitempty"` // Built prefix, empty until built
}

// ActivationScript returns the script entering the saved environment,
// with the prefix search paths when it has been built
func (r *Record) ActivationScript() (string, error) {
	var prefix *Prefix
	if r.Prefix != "" {
		prefix = NewPrefix(r.Prefix)
	}
	return ActivationScript(r.Descriptor, prefix)
}

// Store persists resolved environments on disk, one directory per name
type Store struct {
	rootDir string // ~/.uenv/envs
}

// NewStore creates a store rooted at rootDir (default ~/.uenv/envs)
func NewStore(rootDir string) *Store {
	if rootDir == "" {
		rootDir = DefaultStoreDir()
	}
	return &Store{rootDir: rootDir}
}

// DefaultStoreDir returns the default store location
func DefaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "uenv", "envs")
	}
	return filepath.Join(home, ".uenv", "envs")
}

// Root returns the store directory
func (s *Store) Root() string {
	return s.rootDir
}

// Dir returns the directory of the named environment
func (s *Store) Dir(name string) string {
	return filepath.Join(s.rootDir, name)
}

// envNamePattern limits names to a single portable path component
var envNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// validateEnvName rejects names that cannot be used as a single directory
func validateEnvName(name string) error {
	if !envNamePattern.MatchString(name) {
		return fmt.Errorf("invalid environment name %q", name)
	}
	return nil
}

// Save writes the descriptor, replacing any previous record of the same name.
// The descriptor must carry a valid fingerprint.
func (s *Store) Save(desc *Descriptor, prefix string) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if err := desc.Verify(); err != nil {
		return err
	}

	dir := s.Dir(desc.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating environment directory: %w", err)
	}

	rec := Record{
		Descriptor: desc,
		SavedAt:    time.Now().UTC().Format(time.RFC3339),
		Prefix:     prefix,
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encoding environment: %w", err)
	}

	// write-then-rename so a crash never leaves a half written record
	tmp := filepath.Join(dir, descriptorFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing environment: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, descriptorFile))
}

// Load reads a saved environment by name and checks its fingerprint
func (s *Store) Load(name string) (*Record, error) {
	if err := validateEnvName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(name), descriptorFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrEnvNotFound, name)
		}
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing environment %q: %w", name, err)
	}
	if rec.Descriptor == nil {
		return nil, fmt.Errorf("environment %q has no descriptor", name)
	}
	if err := rec.Descriptor.Verify(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every saved environment, sorted by name.
// Directories without a readable record are skipped.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Record{}, nil
		}
		return nil, err
	}

	var records []*Record
	for _, entry := range entries {
		if !entry.IsDir() || validateEnvName(entry.Name()) != nil {
			continue
		}

		rec, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Remove deletes a saved environment, deactivating it if it was active
func (s *Store) Remove(name string) error {
	if _, err := s.Load(name); err != nil {
		return err
	}
	if active, err := s.activeName(); err == nil && active == name {
		if err := s.Deactivate(); err != nil {
			return err
		}
	}
	return os.RemoveAll(s.Dir(name))
}

// Activate marks an environment as active
func (s *Store) Activate(name string) error {
	// Verify environment exists
	if _, err := s.Load(name); err != nil {
		return err
	}

	if err := os.MkdirAll(s.rootDir, 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	return os.WriteFile(filepath.Join(s.rootDir, activeFile), []byte(name), 0644)
}

// Active returns the currently active environment
func (s *Store) Active() (*Record, error) {
	name, err := s.activeName()
	if err != nil {
		return nil, err
	}
	return s.Load(name)
}

func (s *Store) activeName() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.rootDir, activeFile))
	if err != nil {
		return "", fmt.Errorf("no active environment")
	}
	return strings.TrimSpace(string(data)), nil
}

// Deactivate clears the active environment
func (s *Store) Deactivate() error {
	err := os.Remove(filepath.Join(s.rootDir, activeFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
