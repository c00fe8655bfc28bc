// Package catalog holds the models users can pick and the inference
// providers that serve them.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// AutoProvider lets the catalog pick the provider for a model.
const AutoProvider = "auto"

//go:embed catalog.yaml
var defaultYAML []byte

var (
	ErrNoModels        = errors.New("catalog: no models defined")
	ErrUnknownProvider = errors.New("catalog: unknown provider")
	ErrDuplicateID     = errors.New("catalog: duplicate id")
)

// Provider is an inference backend behind the router.
type Provider struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	MaxTokens int    `yaml:"max_tokens" json:"maxTokens"`
}

// Model is a selectable model and the providers able to serve it.
type Model struct {
	Value        string   `yaml:"value" json:"value"`
	Label        string   `yaml:"label" json:"label"`
	Providers    []string `yaml:"providers" json:"providers"`
	AutoProvider string   `yaml:"auto_provider" json:"autoProvider"`
	IsThinker    bool     `yaml:"is_thinker" json:"isThinker,omitempty"`
	IsNew        bool     `yaml:"is_new" json:"isNew,omitempty"`
}

// Catalog is an immutable set of models and providers.
type Catalog struct {
	DefaultProvider string     `yaml:"default_provider" json:"defaultProvider"`
	Providers       []Provider `yaml:"providers" json:"providers"`
	Models          []Model    `yaml:"models" json:"models"`

	byID map[string]Provider
}

// Load decodes and validates a catalog document.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return Load(f)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the embedded catalog.
func Default() *Catalog { return defaultCatalog() }

func (c *Catalog) index() error {
	if len(c.Models) == 0 {
		return ErrNoModels
	}
	c.byID = make(map[string]Provider, len(c.Providers))
	for _, p := range c.Providers {
		if _, dup := c.byID[p.ID]; dup {
			return fmt.Errorf("%w: provider %q", ErrDuplicateID, p.ID)
		}
		c.byID[p.ID] = p
	}
	if _, ok := c.byID[c.DefaultProvider]; !ok {
		return fmt.Errorf("%w: default %q", ErrUnknownProvider, c.DefaultProvider)
	}

	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if seen[m.Value] {
			return fmt.Errorf("%w: model %q", ErrDuplicateID, m.Value)
		}
		seen[m.Value] = true
		for _, id := range m.Providers {
			if _, ok := c.byID[id]; !ok {
				return fmt.Errorf("%w: %q on model %q", ErrUnknownProvider, id, m.Value)
			}
		}
		if _, ok := c.byID[m.AutoProvider]; !ok {
			return fmt.Errorf("%w: auto provider %q on model %q", ErrUnknownProvider, m.AutoProvider, m.Value)
		}
	}
	return nil
}

// FindModel matches name against model values first, then labels.
func (c *Catalog) FindModel(name string) (Model, bool) {
	for _, m := range c.Models {
		if m.Value == name || m.Label == name {
			return m, true
		}
	}
	return Model{}, false
}

// DefaultModel is the first model in the catalog.
func (c *Catalog) DefaultModel() Model { return c.Models[0] }

// Provider looks up a provider by id.
func (c *Catalog) Provider(id string) (Provider, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Supports reports whether m can be served by provider. AutoProvider is
// always accepted.
func (c *Catalog) Supports(m Model, provider string) bool {
	if provider == AutoProvider {
		return true
	}
	for _, id := range m.Providers {
		if id == provider {
			return true
		}
	}
	return false
}

// ResolveProvider maps a requested provider to a concrete one: AutoProvider
// becomes the model's auto provider and unknown ids fall back to the
// catalog default.
func (c *Catalog) ResolveProvider(m Model, requested string) Provider {
	if requested == AutoProvider {
		if p, ok := c.byID[m.AutoProvider]; ok {
			return p
		}
	}
	if p, ok := c.byID[requested]; ok {
		return p
	}
	return c.byID[c.DefaultProvider]
}
