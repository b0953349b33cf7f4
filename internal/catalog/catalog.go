// Package catalog holds the lab's product, material and treatment lists.
// A Catalog is built once at startup and never mutated afterwards, so it can
// be shared freely between request handlers.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultDocument []byte

type Product struct {
	ID          string  `yaml:"id" json:"id"`
	Group       string  `yaml:"group" json:"grupo"`
	Name        string  `yaml:"name" json:"nome"`
	Description string  `yaml:"description" json:"desc"`
	LensType    string  `yaml:"lens_type" json:"tipo_tecnico"`
	Price       float64 `yaml:"price" json:"preco"`
}

type Material struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"nome"`
	Description string `yaml:"description" json:"desc"`
}

type Treatment struct {
	ID   string  `yaml:"id" json:"id"`
	Name string  `yaml:"name" json:"nome"`
	Cost float64 `yaml:"cost" json:"custo"`
}

type document struct {
	DefaultCategory string               `yaml:"default_category"`
	Categories      map[string][]Product `yaml:"categories"`
	Materials       []Material           `yaml:"materials"`
	Treatments      []Treatment          `yaml:"treatments"`
}

type Catalog struct {
	defaultCategory string
	categories      map[string][]Product
	products        map[string]Product
	materials       []Material
	materialByID    map[string]Material
	treatments      []Treatment
	treatmentByID   map[string]Treatment
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Load reads a catalog file; an empty path falls back to Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("catalog has no categories")
	}
	if _, ok := doc.Categories[doc.DefaultCategory]; !ok {
		return nil, fmt.Errorf("default category %q not in catalog", doc.DefaultCategory)
	}

	c := &Catalog{
		defaultCategory: doc.DefaultCategory,
		categories:      doc.Categories,
		products:        make(map[string]Product),
		materials:       doc.Materials,
		materialByID:    make(map[string]Material, len(doc.Materials)),
		treatments:      doc.Treatments,
		treatmentByID:   make(map[string]Treatment, len(doc.Treatments)),
	}
	for name, products := range doc.Categories {
		for _, p := range products {
			if _, dup := c.products[p.ID]; dup {
				return nil, fmt.Errorf("duplicate product %q in category %q", p.ID, name)
			}
			c.products[p.ID] = p
		}
	}
	for _, m := range doc.Materials {
		c.materialByID[m.ID] = m
	}
	for _, t := range doc.Treatments {
		c.treatmentByID[t.ID] = t
	}
	return c, nil
}

func (c *Catalog) Product(id string) (Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

func (c *Catalog) Material(id string) (Material, bool) {
	m, ok := c.materialByID[id]
	return m, ok
}

func (c *Catalog) Treatment(id string) (Treatment, bool) {
	t, ok := c.treatmentByID[id]
	return t, ok
}

// Category returns the products of a category. Unknown names fall back to the
// default category, the same way the order wizard treats a bad query param.
func (c *Catalog) Category(name string) (string, []Product) {
	if products, ok := c.categories[name]; ok {
		return name, append([]Product(nil), products...)
	}
	return c.defaultCategory, append([]Product(nil), c.categories[c.defaultCategory]...)
}

// Price is the product price plus the treatment cost. Unknown ids count as zero.
func (c *Catalog) Price(productID, treatmentID string) float64 {
	var total float64
	if p, ok := c.products[productID]; ok {
		total += p.Price
	}
	if t, ok := c.treatmentByID[treatmentID]; ok {
		total += t.Cost
	}
	return total
}

// View is the JSON shape served to the order wizard.
type View struct {
	Categories map[string][]Product `json:"categories"`
	Materials  []Material           `json:"materials"`
	Treatments []Treatment          `json:"treatments"`
}

func (c *Catalog) View() View {
	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)

	v := View{
		Categories: make(map[string][]Product, len(names)),
		Materials:  append([]Material(nil), c.materials...),
		Treatments: append([]Treatment(nil), c.treatments...),
	}
	for _, name := range names {
		v.Categories[name] = append([]Product(nil), c.categories[name]...)
	}
	return v
}
