// Package catalog holds the static product tables the storefront sells from.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"gwi.com/beauty-box/internal/store"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Order in which categories are listed.
var Categories = []store.Category{
	store.CategoryWomen,
	store.CategoryMen,
	store.CategoryKids,
	store.CategoryLaptops,
	store.CategorySkincare,
}

type catalogFile struct {
	DefaultBox []string                   `yaml:"defaultBox"`
	Categories map[string][]store.Product `yaml:"categories"`
}

// Catalog is read-only after Load; callers get copies of its slices.
type Catalog struct {
	byCategory map[store.Category][]store.Product
	byID       map[string]store.Product
	defaultBox []store.Product
}

func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		byCategory: make(map[store.Category][]store.Product),
		byID:       make(map[string]store.Product),
	}
	for name, products := range f.Categories {
		cat := store.ParseCategory(name)
		for _, p := range products {
			if p.ID == "" || p.Name == "" {
				return nil, fmt.Errorf("catalog entry in %s without id or name", name)
			}
			if p.Price < 0 {
				return nil, fmt.Errorf("catalog product %s has a negative price", p.ID)
			}
			if _, dup := c.byID[p.ID]; dup {
				return nil, fmt.Errorf("duplicate catalog product id %s", p.ID)
			}
			p.Category = cat
			p.Source = store.SourceCatalog
			c.byCategory[cat] = append(c.byCategory[cat], p)
			c.byID[p.ID] = p
		}
	}

	for _, id := range f.DefaultBox {
		p, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("default box references unknown product %s", id)
		}
		c.defaultBox = append(c.defaultBox, p)
	}
	if len(c.defaultBox) == 0 {
		return nil, fmt.Errorf("catalog has no default box")
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// All lists every product, grouped in category order.
func (c *Catalog) All() []store.Product {
	var out []store.Product
	for _, cat := range Categories {
		out = append(out, c.byCategory[cat]...)
	}
	return out
}

func (c *Catalog) ByCategory(cat store.Category) []store.Product {
	return append([]store.Product(nil), c.byCategory[cat]...)
}

func (c *Catalog) FindByID(id string) (store.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// FindByName matches the full product name, ignoring case.
func (c *Catalog) FindByName(name string) (store.Product, bool) {
	name = strings.TrimSpace(name)
	for _, p := range c.All() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return store.Product{}, false
}

func (c *Catalog) DefaultBox() []store.Product {
	return append([]store.Product(nil), c.defaultBox...)
}
