package reconcile

import "github.com/georgemunganga/stocksync/internal/modules/catalog"

// Row is a catalog row joined with its live stock. Units is never negative;
// a catalog row without stock data carries 0 ("not currently stocked").
type Row struct {
	catalog.Row
	Units int `json:"units"`
}

// Key identifies one storefront product.
type Key struct {
	Model string `json:"model"`
	Year  string `json:"year"`
}

// Group is the variant set of one storefront product. Rows is never empty
// and keeps catalog order.
type Group struct {
	Key            Key    `json:"key"`
	Title          string `json:"title"`
	Representative Row    `json:"representative"`
	Rows           []Row  `json:"rows"`
}

// Lookup returns the first row whose size and colour name equal the given values.
func (g Group) Lookup(size, colorName string) (Row, bool) {
	for _, r := range g.Rows {
		if r.Size == size && r.ColorName == colorName {
			return r, true
		}
	}
	return Row{}, false
}

// Colors lists the distinct colour names of the group in first-seen order.
func (g Group) Colors() []string {
	seen := make(map[string]struct{}, len(g.Rows))
	var out []string
	for _, r := range g.Rows {
		if _, ok := seen[r.ColorName]; ok {
			continue
		}
		seen[r.ColorName] = struct{}{}
		out = append(out, r.ColorName)
	}
	return out
}

// Warning reports a row-level data-quality problem that was recovered locally.
type Warning struct {
	Row     catalog.Row `json:"row"`
	Message string      `json:"message"`
}

// Result is the output of Reconcile.
type Result struct {
	Groups             []Group   `json:"groups"`
	Warnings           []Warning `json:"warnings,omitempty"`
	DuplicateStockKeys int       `json:"duplicate_stock_keys"`
	Unstocked          int       `json:"unstocked"`
}

// Rows flattens every group back into one slice, in group order.
func (r Result) Rows() []Row {
	var out []Row
	for _, g := range r.Groups {
		out = append(out, g.Rows...)
	}
	return out
}
