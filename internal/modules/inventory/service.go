package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/georgemunganga/stocksync/internal/modules/catalog"
	"github.com/georgemunganga/stocksync/internal/modules/reconcile"
	"github.com/georgemunganga/stocksync/internal/modules/storefront"
)

var (
	// ErrAmbiguousProduct: more than one storefront product carries the computed title.
	// Product identity cannot be resolved automatically, so the run must stop.
	ErrAmbiguousProduct = errors.New("multiple products found")
	// ErrSaveFailed: the save failed, and so did its single retry.
	ErrSaveFailed = errors.New("save failed after retry")
)

// Sleeper pauses the update loop. Tests substitute a recorder.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper waits on a timer and returns early when ctx is cancelled.
var TimerSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// Options configures the updater.
type Options struct {
	ColorOverrides map[string]storefront.InventoryPolicy
	RequireImage   bool
	Timing         Timing
	Sleeper        Sleeper
}

// Service matches reconciled product groups to storefront products and
// writes back one inventory policy per variant.
type Service interface {
	// Apply processes groups strictly in order. It stops at the first fatal
	// error (ambiguous product, exhausted save retry, lookup failure) and
	// returns the summary gathered so far alongside it.
	Apply(ctx context.Context, groups []reconcile.Group) (Summary, error)
}

type service struct {
	client  storefront.Client
	opts    Options
	logger  *slog.Logger
	sleeper Sleeper
}

// NewService creates the storefront updater.
func NewService(client storefront.Client, opts Options, logger *slog.Logger) Service {
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = TimerSleeper
	}
	return &service{client: client, opts: opts, logger: logger, sleeper: sleeper}
}

func (s *service) Apply(ctx context.Context, groups []reconcile.Group) (Summary, error) {
	var sum Summary
	s.logger.InfoContext(ctx, "processing products", "count", len(groups))

	for i, g := range groups {
		s.logger.InfoContext(ctx, "product", "index", i+1, "total", len(groups), "title", g.Title)

		o, err := s.applyGroup(ctx, g)
		if err != nil {
			sum.Groups = i + 1
			sum.add(o)
			return sum, err
		}
		sum.add(o)

		if err := s.sleeper.Sleep(ctx, s.opts.Timing.ProductDelay); err != nil {
			sum.Groups = i + 1
			return sum, err
		}
	}
	sum.Groups = len(groups)
	return sum, nil
}

// applyGroup runs PENDING -> {NOT_FOUND, SKIPPED, AMBIGUOUS, MATCHED -> SAVED | FATAL}.
func (s *service) applyGroup(ctx context.Context, g reconcile.Group) (Outcome, error) {
	o := Outcome{Title: g.Title}

	if s.opts.RequireImage && g.Representative.ImageURL == "" {
		s.logger.InfoContext(ctx, "skipping product: no image", "title", g.Title)
		o.State = StateSkipped
		return o, nil
	}

	products, err := s.client.FindProductsByTitle(ctx, g.Title)
	if err != nil {
		return o, err
	}
	switch len(products) {
	case 0:
		s.logger.InfoContext(ctx, "skipping product: not listed yet", "title", g.Title)
		o.State = StateNotFound
		return o, nil
	case 1:
	default:
		return o, fmt.Errorf("%w for %q (%d)", ErrAmbiguousProduct, g.Title, len(products))
	}

	product := products[0]
	o.ProductID = product.ID
	for _, v := range product.Variants {
		row, ok := g.Lookup(v.Option1, catalog.NormalizeSpace(v.Option2))
		if !ok {
			o.Mismatched++
			s.logger.ErrorContext(ctx, "mismatching color",
				"title", g.Title,
				"variant_id", v.ID,
				"size", v.Option1,
				"storefront_color", v.Option2,
				"stock_colors", strings.Join(g.Colors(), ", "),
			)
			continue
		}
		policy := DecidePolicy(row.Units, row.ColorName, s.opts.ColorOverrides)
		if v.InventoryPolicy != policy {
			o.Changed++
		}
		v.InventoryPolicy = policy
		o.Matched++
	}

	if err := s.client.SaveProduct(ctx, product); err != nil {
		s.logger.WarnContext(ctx, "error saving product, retrying",
			"title", g.Title,
			"delay", s.opts.Timing.SaveRetryDelay.String(),
			"error", err,
		)
		o.Retried = true
		if err := s.sleeper.Sleep(ctx, s.opts.Timing.SaveRetryDelay); err != nil {
			return o, err
		}
		if err := s.client.SaveProduct(ctx, product); err != nil {
			return o, fmt.Errorf("%w: %q: %w", ErrSaveFailed, g.Title, err)
		}
	}
	o.State = StateSaved
	return o, nil
}
