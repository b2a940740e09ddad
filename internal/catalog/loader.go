package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Loader produces a prepared catalog.
type Loader interface {
	Load(ctx context.Context) (*Catalog, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Catalog, error)

func (f LoaderFunc) Load(ctx context.Context) (*Catalog, error) {
	return f(ctx)
}

// FileLoader reads a YAML catalog from Path, or the built-in catalog when Path
// is empty.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(_ context.Context) (*Catalog, error) {
	data := defaultCatalog
	if l.Path != "" {
		b, err := os.ReadFile(l.Path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes and prepares a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Prepare(); err != nil {
		return nil, fmt.Errorf("prepare catalog: %w", err)
	}
	return &c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}
