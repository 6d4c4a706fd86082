package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the storefront platform boundary used by the updater.
type Client interface {
	// FindProductsByTitle returns every product whose title equals title exactly.
	FindProductsByTitle(ctx context.Context, title string) ([]*Product, error)
	// SaveProduct writes the product's variant policies back in a single call.
	SaveProduct(ctx context.Context, p *Product) error
}

// ── Shopify Admin REST adapter ────────────────────────────────────────────────

// ShopifyOptions configures the Shopify adapter.
type ShopifyOptions struct {
	ShopURL     string // e.g. my-shop.myshopify.com
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
}

type shopifyClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewShopifyClient builds a Client backed by the Shopify Admin REST API.
func NewShopifyClient(opts ShopifyOptions) (Client, error) {
	shop := strings.TrimSpace(opts.ShopURL)
	if shop == "" {
		return nil, errors.New("shop URL is required")
	}
	if !strings.Contains(shop, "://") {
		shop = "https://" + shop
	}
	if _, err := url.Parse(shop); err != nil {
		return nil, fmt.Errorf("invalid shop URL: %w", err)
	}
	version := opts.APIVersion
	if version == "" {
		version = "2022-10"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &shopifyClient{
		baseURL: strings.TrimRight(shop, "/") + "/admin/api/" + version,
		token:   opts.AccessToken,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type productEnvelope struct {
	Product *Product `json:"product"`
}

type productsEnvelope struct {
	Products []*Product `json:"products"`
}

func (c *shopifyClient) FindProductsByTitle(ctx context.Context, title string) ([]*Product, error) {
	q := url.Values{}
	q.Set("title", title)
	q.Set("fields", "id,title,variants")
	q.Set("limit", "250")

	var env productsEnvelope
	if err := c.do(ctx, http.MethodGet, "/products.json?"+q.Encode(), nil, &env); err != nil {
		return nil, fmt.Errorf("find products %q: %w", title, err)
	}
	// The title filter is not guaranteed to be exact on every API version.
	out := make([]*Product, 0, len(env.Products))
	for _, p := range env.Products {
		if p.Title == title {
			out = append(out, p)
		}
	}
	return out, nil
}

type variantPolicyUpdate struct {
	ID              int64           `json:"id"`
	InventoryPolicy InventoryPolicy `json:"inventory_policy"`
}

func (c *shopifyClient) SaveProduct(ctx context.Context, p *Product) error {
	// Every variant id is sent; omitting one would delete it.
	variants := make([]variantPolicyUpdate, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, variantPolicyUpdate{ID: v.ID, InventoryPolicy: v.InventoryPolicy})
	}
	body := map[string]interface{}{
		"product": map[string]interface{}{
			"id":       p.ID,
			"variants": variants,
		},
	}
	var env productEnvelope
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d.json", p.ID), body, &env); err != nil {
		return fmt.Errorf("save product %d (%s): %w", p.ID, p.Title, err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

func (c *shopifyClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ── Dry run ───────────────────────────────────────────────────────────────────

type dryRunClient struct {
	next   Client
	logger *slog.Logger
}

// NewDryRun reads through to next but never writes: saves are logged and dropped.
func NewDryRun(next Client, logger *slog.Logger) Client {
	return &dryRunClient{next: next, logger: logger}
}

func (d *dryRunClient) FindProductsByTitle(ctx context.Context, title string) ([]*Product, error) {
	return d.next.FindProductsByTitle(ctx, title)
}

func (d *dryRunClient) SaveProduct(ctx context.Context, p *Product) error {
	d.logger.InfoContext(ctx, "dry run: would have saved product", "product_id", p.ID, "title", p.Title)
	return nil
}
