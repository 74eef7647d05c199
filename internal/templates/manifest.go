package templates

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

// templateKey names the template a manifest document builds on.
const templateKey = "template"

// Resolve turns one manifest document into a configuration. A document
// may name a template under "template"; its keys then override the
// template's.
func (s *Store) Resolve(doc map[string]any) (*svcconfig.Config, error) {
	name, ok := doc[templateKey]
	if !ok {
		return svcconfig.FromDocument(doc)
	}

	t, err := s.Get(fmt.Sprint(name))
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(t.Service)+len(doc))
	for k, v := range t.Service {
		merged[k] = v
	}
	for k, v := range doc {
		if k != templateKey {
			merged[k] = v
		}
	}
	return svcconfig.FromDocument(merged)
}

// LoadFile reads every YAML document in path. A file may hold several
// documents separated by "---".
func (s *Store) LoadFile(path string) ([]*svcconfig.Config, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var out []*svcconfig.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for i := 1; ; i++ {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, i, err)
		}
		if doc == nil {
			continue
		}

		cfg, err := s.Resolve(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, i, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// LoadDir reads every .yaml and .yml file in dir, in name order. Files
// that fail to load are reported in the returned error while the valid
// configurations are still returned. A service defined twice is an error.
func (s *Store) LoadDir(dir string) ([]*svcconfig.Config, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read desired state directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var (
		out  []*svcconfig.Config
		errs []error
		seen = map[string]string{}
	)
	for _, name := range names {
		path := filepath.Join(dir, name)
		cfgs, err := s.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, cfg := range cfgs {
			key := strings.ToLower(cfg.Identifier())
			if prev, dup := seen[key]; dup {
				errs = append(errs, fmt.Errorf("%s: service %s is already defined in %s", path, cfg.Identifier(), prev))
				continue
			}
			seen[key] = path
			out = append(out, cfg)
		}
	}
	return out, errors.Join(errs...)
}

// EncodeConfig writes cfg as a YAML manifest document.
func EncodeConfig(w io.Writer, cfg *svcconfig.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Document()); err != nil {
		return fmt.Errorf("failed to encode service %s: %w", cfg.Identifier(), err)
	}
	return enc.Close()
}
