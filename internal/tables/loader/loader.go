// Package loader builds a table registry from a YAML document:
//
//	tables:
//	  /loot:
//	    title: Loot
//	    dice: 1d2
//	    rows:
//	      - "1|Sword"
//	      - "2|[[@gold:10]] gold, then [[/other]]"
//	    inputs:
//	      name: ./names
//	    extra: "Found by [name]"
//	bundles:
//	  /hoard:
//	    title: Hoard
//	    refs: ["/loot;count=2", "/gems"]
//
// Each definition is parsed on its own. A definition that fails to parse is
// reported and left out of the registry; the rest still load.
package loader

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/rollable/internal/platform/errors"
	"github.com/louisbranch/rollable/internal/tables/table"
)

// Document is the YAML layout of a definitions file.
type Document struct {
	Tables  map[string]TableDoc  `yaml:"tables"`
	Bundles map[string]BundleDoc `yaml:"bundles"`
}

// TableDoc is one table definition.
type TableDoc struct {
	Title  string            `yaml:"title"`
	Dice   string            `yaml:"dice,omitempty"`
	Rows   []string          `yaml:"rows"`
	Inputs map[string]string `yaml:"inputs,omitempty"`
	Extra  string            `yaml:"extra,omitempty"`
}

// BundleDoc is one bundle definition.
type BundleDoc struct {
	Title string   `yaml:"title"`
	Refs  []string `yaml:"refs"`
}

// LoadFile reads definitions from the YAML file at name.
func LoadFile(name string, root string) (*table.Registry, []error) {
	f, err := os.Open(name)
	if err != nil {
		return table.NewRegistry(root), []error{fmt.Errorf("open definitions: %w", err)}
	}
	defer f.Close()
	return Load(f, root)
}

// Load decodes definitions from r into a registry rooted at root. The
// returned errors carry the INVALID_DEFINITION code and, per definition,
// the path in their metadata; they are ordered by path.
func Load(r io.Reader, root string) (*table.Registry, []error) {
	registry := table.NewRegistry(root)

	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return registry, []error{apperrors.Wrap(apperrors.CodeInvalidDefinition, "decode definitions", err)}
	}
	return registry, doc.Register(registry)
}

// Register parses every definition of d into registry.
func (d Document) Register(registry *table.Registry) []error {
	var errs []error
	for _, p := range sortedKeys(d.Tables) {
		src := d.Tables[p]
		tbl, err := table.New(table.Source{
			Title:  src.Title,
			Dice:   src.Dice,
			Rows:   src.Rows,
			Inputs: src.Inputs,
			Extra:  src.Extra,
		})
		if err == nil {
			err = registry.Add(p, tbl)
		}
		if err != nil {
			errs = append(errs, invalid(p, err))
		}
	}
	for _, p := range sortedKeys(d.Bundles) {
		if _, ok := d.Tables[p]; ok {
			errs = append(errs, invalid(p, fmt.Errorf("path is already a table")))
			continue
		}
		src := d.Bundles[p]
		b, err := table.NewBundle(src.Title, src.Refs)
		if err == nil {
			err = registry.Add(p, b)
		}
		if err != nil {
			errs = append(errs, invalid(p, err))
		}
	}
	return errs
}

func invalid(p string, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeInvalidDefinition, "invalid definition "+p, map[string]string{"Path": p}, err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
