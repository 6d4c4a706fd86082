package catalog

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Service loads the retailer catalog and narrows it to the products sold online.
type Service interface {
	// Load reads, filters and normalizes the catalog. Row order follows the source.
	Load(ctx context.Context) ([]Row, error)
}

type service struct {
	source  Source
	filters Filters
	logger  *slog.Logger
}

// NewService creates a catalog loader. Filters are consumed once, here.
func NewService(source Source, filters Filters, logger *slog.Logger) Service {
	filters.Columns = filters.Columns.withDefaults()
	return &service{source: source, filters: filters, logger: logger}
}

func (s *service) Load(ctx context.Context) ([]Row, error) {
	data, err := s.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := Parse(data, s.filters.Columns)
	if err != nil {
		return nil, err
	}
	total := len(rows)
	rows = Apply(rows, s.filters)
	s.logger.InfoContext(ctx, "catalog loaded",
		"source", s.source.String(),
		"rows_read", total,
		"rows_kept", len(rows),
	)
	return rows, nil
}

// Apply runs the filter chain: family allow-list, (model, year) skip-list,
// substring exclusions, optional single model, then colour whitespace normalization.
func Apply(rows []Row, f Filters) []Row {
	families := make(map[string]struct{}, len(f.Families))
	for _, fam := range f.Families {
		families[fam] = struct{}{}
	}
	skip := make(map[SkipModel]struct{}, len(f.SkipModels))
	for _, sm := range f.SkipModels {
		skip[sm] = struct{}{}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if _, ok := families[r.Family]; !ok {
			continue
		}
		if _, ok := skip[SkipModel{Model: r.Model, Year: r.Year}]; ok {
			continue
		}
		if excluded(r.Model, f.ModelExclusions) {
			continue
		}
		if f.FilterSingleModel != "" && r.Model != f.FilterSingleModel {
			continue
		}
		r.ColorName = NormalizeSpace(r.ColorName)
		out = append(out, r)
	}
	return out
}

func excluded(model string, exclusions []string) bool {
	for _, ex := range exclusions {
		if ex != "" && strings.Contains(model, ex) {
			return true
		}
	}
	return false
}

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeSpace collapses whitespace runs to a single space and trims the ends.
// The supplier's colour names sometimes carry doubled spaces.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
