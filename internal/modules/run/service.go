package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/georgemunganga/stocksync/internal/modules/catalog"
	"github.com/georgemunganga/stocksync/internal/modules/inventory"
	"github.com/georgemunganga/stocksync/internal/modules/notification"
	"github.com/georgemunganga/stocksync/internal/modules/reconcile"
	"github.com/georgemunganga/stocksync/internal/modules/stockfeed"
	"github.com/georgemunganga/stocksync/internal/modules/storefront"
	"github.com/google/uuid"
)

// ErrRunInProgress is returned when a run is requested while another is still executing.
var ErrRunInProgress = errors.New("a run is already in progress")

// Service sequences catalog load, stock fetch, reconciliation and storefront update.
type Service interface {
	// Execute performs one complete run. The returned Run is non-nil whenever a run
	// was started; err is non-nil only for fatal conditions.
	Execute(ctx context.Context, opts Options) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}

// Deps are the collaborators of a run. Source, Filters and Storefront are
// combined with per-run Options when Execute starts.
type Deps struct {
	Source     catalog.Source
	Filters    catalog.Filters
	Overrides  map[string]storefront.InventoryPolicy
	Fetcher    stockfeed.Fetcher
	Storefront storefront.Client
	Notifier   notification.Notifier
	Repo       Repository
	Timing     inventory.Timing
	Sleeper    inventory.Sleeper
	Logger     *slog.Logger
}

type service struct {
	deps Deps
	mu   sync.Mutex
	now  func() time.Time
}

// NewService creates the run controller.
func NewService(deps Deps) Service {
	if deps.Notifier == nil {
		deps.Notifier = notification.NewNoop()
	}
	if deps.Repo == nil {
		deps.Repo = NewMemoryRepository()
	}
	return &service{deps: deps, now: time.Now}
}

func (s *service) Execute(ctx context.Context, opts Options) (*Run, error) {
	// Runs are strictly sequential; the storefront session is never shared.
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	log := s.deps.Logger
	r := &Run{
		ID:          uuid.New(),
		Status:      StatusRunning,
		DryRun:      opts.DryRun,
		FilterModel: opts.FilterSingleModel,
		StartedAt:   s.now().UTC(),
	}
	log.InfoContext(ctx, "starting run", "run_id", r.ID, "dry_run", opts.DryRun, "filter_model", opts.FilterSingleModel)
	if err := s.deps.Repo.Create(ctx, r); err != nil {
		log.WarnContext(ctx, "could not record run start", "run_id", r.ID, "error", err)
	}

	runErr := s.sync(ctx, r, opts)

	finished := s.now().UTC()
	r.FinishedAt = &finished
	switch {
	case runErr != nil:
		r.Status = StatusFailed
		r.Error = runErr.Error()
		log.ErrorContext(ctx, "run failed", "run_id", r.ID, "error", runErr)
	case r.ErrorCount() > 0:
		r.Status = StatusCompletedWithErrors
		log.ErrorContext(ctx, fmt.Sprintf("%d errors occurred. Please check log above", r.ErrorCount()),
			"run_id", r.ID,
			"reconciliation_errors", r.ReconciliationErrors,
			"quantity_warnings", r.QuantityWarnings,
		)
	default:
		r.Status = StatusSucceeded
		log.InfoContext(ctx, "finished successfully", "run_id", r.ID, "saved", r.Saved, "changed", r.Changed)
	}

	// Record and notify even when ctx was cancelled mid-run.
	bg := context.WithoutCancel(ctx)
	if err := s.deps.Repo.Update(bg, r); err != nil {
		log.WarnContext(ctx, "could not record run result", "run_id", r.ID, "error", err)
	}
	s.notify(bg, r, opts)
	return r, runErr
}

func (s *service) sync(ctx context.Context, r *Run, opts Options) error {
	log := s.deps.Logger

	filters := s.deps.Filters
	if opts.FilterSingleModel != "" {
		filters.FilterSingleModel = opts.FilterSingleModel
	}
	rows, err := catalog.NewService(s.deps.Source, filters, log).Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	feed, err := s.deps.Fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch stock: %w", err)
	}
	log.InfoContext(ctx, "stock feed fetched", "schema", feed.Schema, "rows", len(feed.Rows))

	res := reconcile.Reconcile(rows, feed, reconcile.Options{
		Brand:                    filters.Brand,
		RepresentativeSkipColors: filters.RepresentativeSkipColors,
	})
	for _, w := range res.Warnings {
		log.ErrorContext(ctx, "unparseable quantity, using 0",
			"model", w.Row.Model,
			"year", w.Row.Year,
			"size", w.Row.Size,
			"color", w.Row.ColorName,
			"join_key", w.Row.JoinKey,
			"error", w.Message,
		)
	}
	if res.DuplicateStockKeys > 0 {
		log.WarnContext(ctx, "duplicate stock keys ignored, first occurrence kept", "count", res.DuplicateStockKeys)
	}
	log.InfoContext(ctx, "reconciled",
		"catalog_rows", len(rows),
		"groups", len(res.Groups),
		"unstocked_rows", res.Unstocked,
	)
	r.QuantityWarnings = len(res.Warnings)

	client := s.deps.Storefront
	if opts.DryRun {
		client = storefront.NewDryRun(client, log)
	}
	// Only the portal catalog carries product imagery; EAN catalogs have no image column.
	requireImage := filters.RequireImage && feed.Schema == stockfeed.SchemaComposite
	updater := inventory.NewService(client, inventory.Options{
		ColorOverrides: s.deps.Overrides,
		RequireImage:   requireImage,
		Timing:         s.deps.Timing,
		Sleeper:        s.deps.Sleeper,
	}, log)

	sum, err := updater.Apply(ctx, res.Groups)
	r.Groups = sum.Groups
	r.Saved = sum.Saved
	r.NotFound = sum.NotFound
	r.Skipped = sum.Skipped
	r.Changed = sum.Changed
	r.ReconciliationErrors = sum.Mismatched
	if err == nil && sum.Groups > 0 && sum.Skipped == sum.Groups {
		log.WarnContext(ctx, "every product was skipped for missing images, nothing was written",
			"groups", sum.Groups,
			"schema", feed.Schema,
		)
	}
	return err
}

func (s *service) notify(ctx context.Context, r *Run, opts Options) {
	var msg notification.Message
	switch {
	case r.Status == StatusFailed && opts.NotifyError:
		msg = notification.Message{
			Status: notification.StatusError,
			Title:  "Stock updater error",
			Body:   r.Error,
		}
	case r.Status == StatusSucceeded && opts.NotifySuccess:
		msg = notification.Message{
			Status: notification.StatusSuccess,
			Title:  "Stock updater finished",
			Body:   fmt.Sprintf("%d products saved, %d not listed", r.Saved, r.NotFound),
		}
	default:
		return
	}
	if err := s.deps.Notifier.Send(ctx, msg); err != nil {
		s.deps.Logger.WarnContext(ctx, "notification failed", "run_id", r.ID, "error", err)
	}
}

func (s *service) GetRun(ctx context.Context, id string) (*Run, error) {
	return s.deps.Repo.GetByID(ctx, id)
}

func (s *service) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	return s.deps.Repo.ListRecent(ctx, limit)
}

// ExitCode maps a run outcome to the process exit status: non-zero on a fatal
// error or when any row-level error was tallied.
func ExitCode(r *Run, err error) int {
	if err != nil || r == nil || r.ErrorCount() > 0 {
		return 1
	}
	return 0
}
