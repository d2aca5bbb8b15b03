// Package taxonomy models category forests and discovers, generates and
// applies them to text.
package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// PathSeparator joins ancestor names in a flattened category path.
const PathSeparator = " > "

// Category is a named node with keywords and optional children.
type Category struct {
	Name     string     `json:"name" yaml:"name"`
	Keywords []string   `json:"keywords" yaml:"keywords"`
	Children []Category `json:"children" yaml:"children"`
}

// Taxonomy is a forest of categories.
type Taxonomy struct {
	Name       string     `json:"name" yaml:"name"`
	Version    string     `json:"version" yaml:"version"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// FlatCategory is one node of a flattened taxonomy.
type FlatCategory struct {
	Path     string
	Keywords []string
}

// Leaf returns the last segment of the path.
func (f FlatCategory) Leaf() string {
	if i := strings.LastIndex(f.Path, PathSeparator); i >= 0 {
		return f.Path[i+len(PathSeparator):]
	}
	return f.Path
}

// Flatten lists every category depth-first, parents before children.
func (t *Taxonomy) Flatten() []FlatCategory {
	var out []FlatCategory
	var walk func(c *Category, prefix string)
	walk = func(c *Category, prefix string) {
		path := c.Name
		if prefix != "" {
			path = prefix + PathSeparator + c.Name
		}
		out = append(out, FlatCategory{Path: path, Keywords: c.Keywords})
		for i := range c.Children {
			walk(&c.Children[i], path)
		}
	}
	for i := range t.Categories {
		walk(&t.Categories[i], "")
	}
	return out
}

// CategoryNames returns the names of the top-level categories.
func (t *Taxonomy) CategoryNames() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// Parse decodes a JSON taxonomy.
func Parse(data []byte) (*Taxonomy, error) {
	var tax Taxonomy
	if err := json.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("%w: parse taxonomy: %v", internalerr.ErrInvalidInput, err)
	}
	return &tax, nil
}

// ParseYAML decodes a YAML taxonomy with the same shape as the JSON form.
func ParseYAML(data []byte) (*Taxonomy, error) {
	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("%w: parse taxonomy: %v", internalerr.ErrInvalidInput, err)
	}
	return &tax, nil
}

// Load reads a taxonomy file. Files ending in .yaml or .yml are read as
// YAML, everything else as JSON.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	if isYAML(path) {
		return ParseYAML(data)
	}
	return Parse(data)
}

// Save writes the taxonomy to path, as YAML or indented JSON depending on
// the extension. Nil keyword and child lists are written as empty lists.
func (t *Taxonomy) Save(path string) error {
	out := t.normalized()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(out)
	} else {
		data, err = json.MarshalIndent(out, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode taxonomy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write taxonomy %s: %w", path, err)
	}
	return nil
}

// normalized returns a copy whose category, keyword and child lists are
// never nil.
func (t *Taxonomy) normalized() *Taxonomy {
	return &Taxonomy{Name: t.Name, Version: t.Version, Categories: normalizeCategories(t.Categories)}
}

func normalizeCategories(cats []Category) []Category {
	out := make([]Category, len(cats))
	for i, c := range cats {
		kw := make([]string, len(c.Keywords))
		copy(kw, c.Keywords)
		out[i] = Category{Name: c.Name, Keywords: kw, Children: normalizeCategories(c.Children)}
	}
	return out
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
