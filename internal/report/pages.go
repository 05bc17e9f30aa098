// Package report builds the detailed and summary campaign datasets.
package report

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Page is one registry entry describing who operates a messaging page.
type Page struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	AccountName string `yaml:"account_name"`
	User        string `yaml:"user"`
	TL          string `yaml:"tl"`
}

// Registry maps page ids to their operator details. It answers lookups for
// unknown pages with "Unknown" placeholders so report rows never lose shape.
type Registry struct {
	pages  map[string]Page
	byName map[string]Page
}

type registryFile struct {
	Pages []Page `yaml:"pages"`
}

// NormalizePageID strips the "fb" prefix some sources carry on page ids.
func NormalizePageID(id string) string {
	return strings.TrimPrefix(id, "fb")
}

// LoadRegistry reads the page registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read pages file %s", path)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "report: parse pages file %s", path)
	}
	return NewRegistry(file.Pages), nil
}

// NewRegistry builds a registry from page entries.
func NewRegistry(pages []Page) *Registry {
	r := &Registry{
		pages:  make(map[string]Page, len(pages)),
		byName: make(map[string]Page, len(pages)),
	}
	for _, p := range pages {
		p.ID = NormalizePageID(p.ID)
		r.pages[p.ID] = p
		if p.Name != "" {
			r.byName[p.Name] = p
		}
	}
	return r
}

// Lookup returns the registry entry for a page id. Unknown pages get
// placeholder details and keep the queried id.
func (r *Registry) Lookup(pageID string) Page {
	id := NormalizePageID(pageID)
	if p, ok := r.pages[id]; ok {
		return withDefaults(p)
	}
	return Page{
		ID:          id,
		Name:        "Unknown",
		AccountName: "Unknown",
		User:        "Unknown",
		TL:          "Unknown",
	}
}

// Known reports whether a page name belongs to the registry.
func (r *Registry) Known(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Pages returns every registry entry.
func (r *Registry) Pages() []Page {
	out := make([]Page, 0, len(r.pages))
	for _, p := range r.pages {
		out = append(out, withDefaults(p))
	}
	return out
}

func withDefaults(p Page) Page {
	if p.Name == "" {
		p.Name = "Unknown"
	}
	if p.AccountName == "" {
		p.AccountName = "Unknown"
	}
	if p.User == "" {
		p.User = "Unknown"
	}
	if p.TL == "" {
		p.TL = "Unknown"
	}
	return p
}
