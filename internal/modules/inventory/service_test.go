package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/georgemunganga/stocksync/internal/logging"
	"github.com/georgemunganga/stocksync/internal/modules/catalog"
	"github.com/georgemunganga/stocksync/internal/modules/reconcile"
	"github.com/georgemunganga/stocksync/internal/modules/stockfeed"
	"github.com/georgemunganga/stocksync/internal/modules/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	products  map[string][]*storefront.Product
	saveErrs  []error
	saves     []*storefront.Product
	findCalls []string
}

func (f *fakeStore) FindProductsByTitle(ctx context.Context, title string) ([]*storefront.Product, error) {
	f.findCalls = append(f.findCalls, title)
	return f.products[title], nil
}

func (f *fakeStore) SaveProduct(ctx context.Context, p *storefront.Product) error {
	f.saves = append(f.saves, p)
	if len(f.saveErrs) > 0 {
		err := f.saveErrs[0]
		f.saveErrs = f.saveErrs[1:]
		return err
	}
	return nil
}

type recordingSleeper struct{ slept []time.Duration }

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return nil
}

var timing = Timing{ProductDelay: 500 * time.Millisecond, SaveRetryDelay: time.Second}

func newTestService(store storefront.Client, sleeper Sleeper) Service {
	return NewService(store, Options{Timing: timing, Sleeper: sleeper}, logging.Discard())
}

// almaGroups reconciles the single ALMA H30 catalog row against a stock feed reporting units.
func almaGroups(units string) []reconcile.Group {
	rows := []catalog.Row{{
		Family: "Alma", Model: "ALMA H30", Year: "2024", Size: "M",
		ColorName: "Blue", ColorCode: "B", JoinKey: "A1", ImageURL: "https://img/alma.jpg",
	}}
	feed := stockfeed.Feed{Schema: stockfeed.SchemaComposite, Rows: []stockfeed.Row{
		{JoinKey: "A1", Size: "M", ColorCode: "B", Units: units},
	}}
	return reconcile.Reconcile(rows, feed, reconcile.Options{Brand: "Orbea"}).Groups
}

func almaProduct(variants ...*storefront.Variant) *storefront.Product {
	return &storefront.Product{ID: 42, Title: "Orbea ALMA H30 2024", Variants: variants}
}

func TestApply_HappyPath(t *testing.T) {
	store := &fakeStore{products: map[string][]*storefront.Product{
		"Orbea ALMA H30 2024": {almaProduct(&storefront.Variant{ID: 1, Option1: "M", Option2: "Blue", InventoryPolicy: storefront.PolicyDeny})},
	}}
	sleeper := &recordingSleeper{}

	sum, err := newTestService(store, sleeper).Apply(context.Background(), almaGroups("5"))
	require.NoError(t, err)

	require.Len(t, store.saves, 1)
	assert.Equal(t, storefront.PolicyContinue, store.saves[0].Variants[0].InventoryPolicy)
	assert.Equal(t, 1, sum.Saved)
	assert.Equal(t, 1, sum.Changed)
	assert.Zero(t, sum.Mismatched)
	assert.Equal(t, []time.Duration{timing.ProductDelay}, sleeper.slept)
}

func TestApply_ZeroStock(t *testing.T) {
	store := &fakeStore{products: map[string][]*storefront.Product{
		"Orbea ALMA H30 2024": {almaProduct(&storefront.Variant{ID: 1, Option1: "M", Option2: "Blue", InventoryPolicy: storefront.PolicyContinue})},
	}}

	sum, err := newTestService(store, &recordingSleeper{}).Apply(context.Background(), almaGroups(""))
	require.NoError(t, err)

	require.Len(t, store.saves, 1)
	assert.Equal(t, storefront.PolicyDeny, store.saves[0].Variants[0].InventoryPolicy)
	assert.Equal(t, 1, sum.Saved)
}

func TestApply_UnmatchedVariant(t *testing.T) {
	teal := &storefront.Variant{ID: 2, Option1: "M", Option2: "Teal", InventoryPolicy: storefront.PolicyDeny}
	store := &fakeStore{products: map[string][]*storefront.Product{
		"Orbea ALMA H30 2024": {almaProduct(
			&storefront.Variant{ID: 1, Option1: "M", Option2: "Blue  ", InventoryPolicy: storefront.PolicyDeny},
			teal,
		)},
	}}

	sum, err := newTestService(store, &recordingSleeper{}).Apply(context.Background(), almaGroups("5"))
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Mismatched)
	assert.Equal(t, storefront.PolicyDeny, teal.InventoryPolicy, "unmatched variant is left alone")
	require.Len(t, store.saves, 1)
	assert.Equal(t, storefront.PolicyContinue, store.saves[0].Variants[0].InventoryPolicy)
	assert.Equal(t, StateSaved, sum.Outcomes[0].State, spew.Sdump(sum))
}

func TestApply_AmbiguousProductIsFatal(t *testing.T) {
	groups := append(almaGroups("5"), reconcile.Group{
		Title: "Orbea OIZ M10 2024",
		Rows:  []reconcile.Row{{Row: catalog.Row{Model: "OIZ M10", Year: "2024", ImageURL: "x"}}},
		Representative: reconcile.Row{Row: catalog.Row{ImageURL: "x"}},
	})
	store := &fakeStore{products: map[string][]*storefront.Product{
		"Orbea ALMA H30 2024": {almaProduct(), almaProduct()},
	}}

	sum, err := newTestService(store, &recordingSleeper{}).Apply(context.Background(), groups)

	assert.ErrorIs(t, err, ErrAmbiguousProduct)
	assert.Equal(t, []string{"Orbea ALMA H30 2024"}, store.findCalls, "no further groups are processed")
	assert.Empty(t, store.saves)
	assert.Equal(t, 1, sum.Groups)
}

func TestApply_SaveRetriedOnce(t *testing.T) {
	store := &fakeStore{
		products: map[string][]*storefront.Product{
			"Orbea ALMA H30 2024": {almaProduct(&storefront.Variant{ID: 1, Option1: "M", Option2: "Blue"})},
		},
		saveErrs: []error{errors.New("502 bad gateway")},
	}
	sleeper := &recordingSleeper{}

	sum, err := newTestService(store, sleeper).Apply(context.Background(), almaGroups("5"))
	require.NoError(t, err)

	assert.Len(t, store.saves, 2)
	assert.Equal(t, 1, sum.Saved)
	assert.Equal(t, 1, sum.Retries)
	assert.Zero(t, sum.Mismatched)
	assert.Equal(t, []time.Duration{timing.SaveRetryDelay, timing.ProductDelay}, sleeper.slept)
}

func TestApply_SaveFailsTwice(t *testing.T) {
	store := &fakeStore{
		products: map[string][]*storefront.Product{
			"Orbea ALMA H30 2024": {almaProduct(&storefront.Variant{ID: 1, Option1: "M", Option2: "Blue"})},
		},
		saveErrs: []error{errors.New("502"), errors.New("503")},
	}

	_, err := newTestService(store, &recordingSleeper{}).Apply(context.Background(), almaGroups("5"))

	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.ErrorContains(t, err, "503")
	assert.Len(t, store.saves, 2)
}

func TestApply_NotFoundAndSkipped(t *testing.T) {
	groups := almaGroups("5")
	noImage := groups[0]
	noImage.Title = "Orbea ALMA H50 2024"
	noImage.Representative.ImageURL = ""
	groups = append(groups, noImage)

	store := &fakeStore{products: map[string][]*storefront.Product{}}
	sleeper := &recordingSleeper{}
	svc := NewService(store, Options{RequireImage: true, Timing: timing, Sleeper: sleeper}, logging.Discard())

	sum, err := svc.Apply(context.Background(), groups)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.NotFound)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Groups)
	assert.Equal(t, []string{"Orbea ALMA H30 2024"}, store.findCalls)
	assert.Len(t, sleeper.slept, 2, "delay runs after every group")
}

func TestApply_ColorOverride(t *testing.T) {
	store := &fakeStore{products: map[string][]*storefront.Product{
		"Orbea ALMA H30 2024": {almaProduct(&storefront.Variant{ID: 1, Option1: "M", Option2: "Blue"})},
	}}
	svc := NewService(store, Options{
		ColorOverrides: map[string]storefront.InventoryPolicy{"Blue": storefront.PolicyContinue},
		Timing:         timing,
		Sleeper:        &recordingSleeper{},
	}, logging.Discard())

	_, err := svc.Apply(context.Background(), almaGroups("0"))
	require.NoError(t, err)
	assert.Equal(t, storefront.PolicyContinue, store.saves[0].Variants[0].InventoryPolicy)
}
