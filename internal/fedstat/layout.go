package fedstat

import (
	"fedstatcli/internal/config"
)

// Layout assigns filter categories to the rows and columns of the exported
// sheet
type Layout struct {
	ColumnObjectIDs []string
	LineObjectIDs   []string
}

// DefaultLayout puts year, period and measure in columns and region and age
// first among the row labels
func DefaultLayout() Layout {
	return Layout{
		ColumnObjectIDs: append([]string(nil), config.DefaultColumnObjectIDs...),
		LineObjectIDs:   append([]string(nil), config.DefaultLineObjectIDs...),
	}
}

// ForCatalog appends every catalog category missing from both lists to the
// row labels, in catalog order
func (l Layout) ForCatalog(c *Catalog) Layout {
	out := Layout{
		ColumnObjectIDs: append([]string(nil), l.ColumnObjectIDs...),
		LineObjectIDs:   append([]string(nil), l.LineObjectIDs...),
	}
	placed := make(map[string]bool, len(l.ColumnObjectIDs)+len(l.LineObjectIDs))
	for _, id := range l.ColumnObjectIDs {
		placed[id] = true
	}
	for _, id := range l.LineObjectIDs {
		placed[id] = true
	}
	for _, cat := range c.Categories() {
		if !placed[cat.Code] {
			out.LineObjectIDs = append(out.LineObjectIDs, cat.Code)
			placed[cat.Code] = true
		}
	}
	return out
}

// RowHeaders names the row label columns. Categories the catalog does not
// describe keep their code.
func (l Layout) RowHeaders(c *Catalog) []string {
	headers := make([]string, len(l.LineObjectIDs))
	for i, id := range l.LineObjectIDs {
		headers[i] = id
		if c == nil {
			continue
		}
		if title, ok := c.CategoryTitle(id); ok {
			headers[i] = title
		}
	}
	return headers
}
