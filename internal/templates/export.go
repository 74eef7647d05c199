package templates

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// bundle is the YAML layout used to move templates between hosts.
type bundle struct {
	Templates []*Template `yaml:"templates"`
}

// Export writes the named templates, or all of them when names is empty,
// as one YAML document.
func (s *Store) Export(w io.Writer, names ...string) error {
	var list []*Template
	if len(names) == 0 {
		all, err := s.List()
		if err != nil {
			return err
		}
		list = all
	} else {
		for _, name := range names {
			t, err := s.Get(name)
			if err != nil {
				return err
			}
			list = append(list, t)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(bundle{Templates: list}); err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	return enc.Close()
}

// Import reads a YAML bundle written by Export and stores every template
// in it. It returns the names that were stored; templates that already
// exist are skipped with ErrExists unless overwrite is set.
func (s *Store) Import(r io.Reader, overwrite bool) ([]string, error) {
	var b bundle
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	var (
		stored []string
		errs   []error
	)
	for _, t := range b.Templates {
		if t == nil {
			continue
		}
		if t.Service == nil {
			t.Service = map[string]any{}
		}
		delete(t.Service, "identifier")
		if err := s.Put(t, overwrite); err != nil {
			errs = append(errs, err)
			continue
		}
		stored = append(stored, t.Name)
	}
	return stored, errors.Join(errs...)
}
