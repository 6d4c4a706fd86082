package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShop(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewShopifyClient(ShopifyOptions{ShopURL: srv.URL, AccessToken: "shpat_test"})
	require.NoError(t, err)
	return c
}

func TestShopify_FindProductsByTitle(t *testing.T) {
	c := newTestShop(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/admin/api/2022-10/products.json", r.URL.Path)
		assert.Equal(t, "Orbea OIZ M10 2024", r.URL.Query().Get("title"))
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		w.Write([]byte(`{"products":[
			{"id":1,"title":"Orbea OIZ M10 2024","variants":[{"id":11,"option1":"M","option2":"Black","inventory_policy":"deny"}]},
			{"id":2,"title":"Orbea OIZ M10 2024 Frame","variants":[]}
		]}`))
	})

	products, err := c.FindProductsByTitle(context.Background(), "Orbea OIZ M10 2024")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(1), products[0].ID)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, &Variant{ID: 11, Option1: "M", Option2: "Black", InventoryPolicy: PolicyDeny}, products[0].Variants[0])
}

func TestShopify_SaveProduct(t *testing.T) {
	var got struct {
		Product struct {
			ID       int64 `json:"id"`
			Variants []struct {
				ID              int64  `json:"id"`
				InventoryPolicy string `json:"inventory_policy"`
			} `json:"variants"`
		} `json:"product"`
	}
	c := newTestShop(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/api/2022-10/products/7.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"product":{"id":7}}`))
	})

	err := c.SaveProduct(context.Background(), &Product{ID: 7, Title: "Orbea ALMA H30 2024", Variants: []*Variant{
		{ID: 70, Option1: "M", Option2: "Blue", InventoryPolicy: PolicyContinue},
		{ID: 71, Option1: "L", Option2: "Blue", InventoryPolicy: PolicyDeny},
	}})
	require.NoError(t, err)

	assert.Equal(t, int64(7), got.Product.ID)
	require.Len(t, got.Product.Variants, 2)
	assert.Equal(t, "continue", got.Product.Variants[0].InventoryPolicy)
	assert.Equal(t, int64(71), got.Product.Variants[1].ID)
	assert.Equal(t, "deny", got.Product.Variants[1].InventoryPolicy)
}

func TestShopify_StatusError(t *testing.T) {
	c := newTestShop(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors":"Exceeded 2 calls per second"}`))
	})

	err := c.SaveProduct(context.Background(), &Product{ID: 1})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Contains(t, se.Body, "Exceeded")
}

func TestNewShopifyClient_RequiresShop(t *testing.T) {
	_, err := NewShopifyClient(ShopifyOptions{})
	assert.Error(t, err)
}

type countingClient struct{ finds, saves int }

func (c *countingClient) FindProductsByTitle(ctx context.Context, title string) ([]*Product, error) {
	c.finds++
	return []*Product{{ID: 3, Title: title}}, nil
}

func (c *countingClient) SaveProduct(ctx context.Context, p *Product) error {
	c.saves++
	return nil
}

func TestDryRun(t *testing.T) {
	var logs bytes.Buffer
	next := &countingClient{}
	c := NewDryRun(next, slog.New(slog.NewTextHandler(&logs, nil)))

	products, err := c.FindProductsByTitle(context.Background(), "Orbea ORCA M20 2024")
	require.NoError(t, err)
	require.NoError(t, c.SaveProduct(context.Background(), products[0]))

	assert.Equal(t, 1, next.finds)
	assert.Zero(t, next.saves)
	assert.Contains(t, logs.String(), "dry run")
}

func TestInventoryPolicy_Valid(t *testing.T) {
	assert.True(t, PolicyContinue.Valid())
	assert.True(t, PolicyDeny.Valid())
	assert.False(t, InventoryPolicy("").Valid())
}
