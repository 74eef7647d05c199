// Package templates stores reusable service configurations and loads
// desired-state manifests.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

const fileExt = ".toml"

var (
	// ErrNotFound is returned when a template does not exist.
	ErrNotFound = errors.New("template not found")

	// ErrExists is returned when saving over an existing template without overwrite.
	ErrExists = errors.New("template already exists")
)

// Template is a service configuration without an identifier.
type Template struct {
	Name        string         `toml:"name" yaml:"name"`
	Description string         `toml:"description,omitempty" yaml:"description,omitempty"`
	Created     time.Time      `toml:"created" yaml:"created"`
	Service     map[string]any `toml:"service" yaml:"service"`
}

// Instantiate builds a validated configuration from the template under
// the given identifier.
func (t *Template) Instantiate(identifier string) (*svcconfig.Config, error) {
	doc := make(map[string]any, len(t.Service)+1)
	for k, v := range t.Service {
		doc[k] = v
	}
	doc["identifier"] = identifier

	cfg, err := svcconfig.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.Name, err)
	}
	return cfg, nil
}

// Store keeps one TOML file per template in a directory.
type Store struct {
	dir string
	fs  afero.Fs
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFs sets the filesystem the store reads and writes.
func WithFs(fs afero.Fs) StoreOption {
	return func(s *Store) {
		s.fs = fs
	}
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir: dir,
		fs:  afero.NewOsFs(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Dir returns the directory holding the templates.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func checkName(name string) error {
	if !svcconfig.ValidIdentifier(name) {
		return fmt.Errorf("invalid template name %q", name)
	}
	return nil
}

// Save stores cfg as a template. The identifier is dropped so the
// template can be instantiated under any name.
func (s *Store) Save(name, description string, cfg *svcconfig.Config, overwrite bool) (*Template, error) {
	doc := cfg.Document()
	delete(doc, "identifier")

	t := &Template{
		Name:        name,
		Description: description,
		Created:     time.Now().UTC().Truncate(time.Second),
		Service:     doc,
	}
	if err := s.Put(t, overwrite); err != nil {
		return nil, err
	}
	return t, nil
}

// Put writes a template as is.
func (s *Store) Put(t *Template, overwrite bool) error {
	if err := checkName(t.Name); err != nil {
		return err
	}

	// Reject documents that could never be instantiated.
	if _, err := t.Instantiate("template-check"); err != nil {
		return err
	}

	path := s.path(t.Name)
	if !overwrite {
		if exists, _ := afero.Exists(s.fs, path); exists {
			return fmt.Errorf("%w: %s", ErrExists, t.Name)
		}
	}

	data, err := toml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template %s: %w", t.Name, err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template %s: %w", t.Name, err)
	}
	return nil
}

// Get reads the named template.
func (s *Store) Get(name string) (*Template, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	var t Template
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", name, err)
	}
	t.Name = name
	if t.Service == nil {
		t.Service = map[string]any{}
	}
	return &t, nil
}

// List returns every template sorted by name. Files that fail to decode
// are reported in the error; the others are still returned.
func (s *Store) List() ([]*Template, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	var (
		out  []*Template
		errs []error
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		t, err := s.Get(strings.TrimSuffix(e.Name(), fileExt))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, errors.Join(errs...)
}

// Delete removes the named template.
func (s *Store) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	err := s.fs.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}
	return nil
}

// Instantiate builds a configuration from the named template.
func (s *Store) Instantiate(name, identifier string) (*svcconfig.Config, error) {
	t, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Instantiate(identifier)
}
