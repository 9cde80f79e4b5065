package curriculum

import (
	"strings"

	"golang.org/x/text/cases"
)

// Catalog is an ordered, read-only set of resources.
type Catalog struct {
	resources []Resource
}

var seedResources = []Resource{
	{
		Title:    "Mastering Loops",
		URL:      "/learn/concepts/loops",
		Type:     "tutorial",
		Keywords: []string{"loop", "for", "while"},
	},
}

// DefaultCatalog returns the built-in seed catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(seedResources)
}

// NewCatalog builds a catalog from resources, keeping their order.
// Keywords are case-folded once here.
func NewCatalog(resources []Resource) *Catalog {
	fold := cases.Fold()
	c := &Catalog{resources: make([]Resource, 0, len(resources))}
	for _, r := range resources {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, fold.String(k))
			}
		}
		r.Keywords = keywords
		c.resources = append(c.resources, r)
	}
	return c
}

// Len returns the number of resources.
func (c *Catalog) Len() int {
	return len(c.resources)
}

// Resources returns a copy of the catalog entries.
func (c *Catalog) Resources() []Resource {
	return append([]Resource{}, c.resources...)
}

// Match returns, in catalog order, every resource with a keyword contained
// in message. Matching is case-insensitive and each resource appears at
// most once.
func (c *Catalog) Match(message string) []Resource {
	folded := cases.Fold().String(message)
	var matched []Resource
	for _, r := range c.resources {
		for _, k := range r.Keywords {
			if strings.Contains(folded, k) {
				matched = append(matched, r)
				break
			}
		}
	}
	return matched
}
