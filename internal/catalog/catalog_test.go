package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	p, ok := c.Product("multi_hd")
	require.True(t, ok)
	assert.Equal(t, "multifocal", p.LensType)
	assert.Equal(t, 250.0, p.Price)

	m, ok := c.Material("indice_167")
	require.True(t, ok)
	assert.Equal(t, "Alto Índice 1.67", m.Name)

	assert.Equal(t, 330.0, c.Price("multi_hd", "antirreflexo"))
	assert.Equal(t, 0.0, c.Price("nope", "nope"))
}

func TestCategoryFallsBackToDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	name, products := c.Category("pronta")
	assert.Equal(t, "pronta", name)
	assert.Len(t, products, 3)

	name, products = c.Category("unknown")
	assert.Equal(t, "surfacada", name)
	assert.Len(t, products, 5)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	_, err := Parse([]byte("default_category: x\ncategories: {}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("default_category: x\ncategories:\n  y:\n    - id: a\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("default_category: y\ncategories:\n  y:\n    - id: a\n  z:\n    - id: a\n"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "default_category: lab\ncategories:\n  lab:\n    - id: p1\n      lens_type: visao_simples\n      price: 10\ntreatments:\n  - id: t1\n    cost: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15.0, c.Price("p1", "t1"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
