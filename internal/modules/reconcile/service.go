package reconcile

import (
	"strings"

	"github.com/georgemunganga/stocksync/internal/modules/catalog"
	"github.com/georgemunganga/stocksync/internal/modules/stockfeed"
)

// Options controls title construction and representative row selection.
type Options struct {
	Brand string
	// RepresentativeSkipColors are never chosen as a group's representative row
	// (e.g. made-to-order colours without product imagery).
	RepresentativeSkipColors []string
}

type stockKey struct {
	joinKey   string
	size      string
	colorCode string
	ean       string
}

// Reconcile left-joins catalog rows onto the stock feed and groups the result
// per storefront product. It has no side effects.
//
// The join key follows feed.Schema: (article, size, colour code) for composite
// reports, EAN otherwise. Exactly one Row is produced per catalog row.
func Reconcile(rows []catalog.Row, feed stockfeed.Feed, opts Options) Result {
	var res Result

	stock := make(map[stockKey]string, len(feed.Rows))
	for _, s := range feed.Rows {
		k, ok := keyOfStock(feed.Schema, s)
		if !ok {
			continue
		}
		if _, dup := stock[k]; dup {
			res.DuplicateStockKeys++
			continue
		}
		stock[k] = s.Units
	}

	index := make(map[Key]int)
	for _, c := range rows {
		joined := Row{Row: c}
		var units string
		var ok bool
		if k, valid := keyOfCatalog(feed.Schema, c); valid {
			units, ok = stock[k]
		}
		if !ok {
			res.Unstocked++
		} else {
			n, err := stockfeed.NormalizeQuantity(units)
			if err != nil {
				res.Warnings = append(res.Warnings, Warning{Row: c, Message: err.Error()})
			}
			joined.Units = n
		}

		k := Key{Model: c.Model, Year: c.Year}
		i, seen := index[k]
		if !seen {
			i = len(res.Groups)
			index[k] = i
			res.Groups = append(res.Groups, Group{Key: k, Title: Title(opts.Brand, c.Model, c.Year)})
		}
		res.Groups[i].Rows = append(res.Groups[i].Rows, joined)
	}

	for i := range res.Groups {
		res.Groups[i].Representative = representative(res.Groups[i].Rows, opts.RepresentativeSkipColors)
	}
	return res
}

// Title builds the storefront product title "<brand> <model> <year>".
func Title(brand, model, year string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{brand, model, year} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// representative picks the first row in catalog order whose colour is not skipped,
// falling back to the first row.
func representative(rows []Row, skipColors []string) Row {
	for _, r := range rows {
		skipped := false
		for _, c := range skipColors {
			if r.ColorName == c {
				skipped = true
				break
			}
		}
		if !skipped {
			return r
		}
	}
	return rows[0]
}

// An empty identifier never joins.
func keyOfStock(schema stockfeed.Schema, s stockfeed.Row) (stockKey, bool) {
	if schema == stockfeed.SchemaEAN {
		return stockKey{ean: s.EAN}, s.EAN != ""
	}
	return stockKey{joinKey: s.JoinKey, size: s.Size, colorCode: s.ColorCode}, s.JoinKey != ""
}

func keyOfCatalog(schema stockfeed.Schema, c catalog.Row) (stockKey, bool) {
	if schema == stockfeed.SchemaEAN {
		return stockKey{ean: c.EAN}, c.EAN != ""
	}
	return stockKey{joinKey: c.JoinKey, size: c.Size, colorCode: c.ColorCode}, c.JoinKey != ""
}
