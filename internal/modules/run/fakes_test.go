package run

import (
	"context"
	"sync"
	"time"

	"github.com/georgemunganga/stocksync/internal/modules/notification"
	"github.com/georgemunganga/stocksync/internal/modules/stockfeed"
	"github.com/georgemunganga/stocksync/internal/modules/storefront"
)

const catalogCSV = "Family;Model;Year;Size;Summarised Colour (EN);Colour Code;TTCC;Image_Url\n" +
	"Alma;ALMA H30;2024;M;Blue;B;A1;https://img/alma.jpg\n" +
	"Oiz;OIZ M10;2024;L;Black;K;O1;https://img/oiz.jpg\n"

type staticSource string

func (s staticSource) Open(ctx context.Context) ([]byte, error) { return []byte(s), nil }
func (s staticSource) String() string                            { return "memory" }

type staticFetcher struct {
	feed stockfeed.Feed
	err  error
}

func (f staticFetcher) Fetch(ctx context.Context) (stockfeed.Feed, error) { return f.feed, f.err }

type fakeShop struct {
	mu       sync.Mutex
	products map[string][]*storefront.Product
	saved    []int64
	block    chan struct{}
	entered  chan struct{}
	once     sync.Once
}

func (f *fakeShop) FindProductsByTitle(ctx context.Context, title string) ([]*storefront.Product, error) {
	if f.block != nil {
		f.once.Do(func() { close(f.entered) })
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[title], nil
}

func (f *fakeShop) SaveProduct(ctx context.Context, p *storefront.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, p.ID)
	return nil
}

type recordingNotifier struct{ sent []notification.Message }

func (n *recordingNotifier) Send(ctx context.Context, msg notification.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }


func stockFeed(units string) stockfeed.Feed {
	return stockfeed.Feed{Schema: stockfeed.SchemaComposite, Rows: []stockfeed.Row{
		{JoinKey: "A1", Size: "M", ColorCode: "B", Units: units},
		{JoinKey: "O1", Size: "L", ColorCode: "K", Units: "0"},
	}}
}

func shop() *fakeShop {
	return &fakeShop{products: map[string][]*storefront.Product{
		"Orbea ALMA H30 2024": {{ID: 1, Title: "Orbea ALMA H30 2024", Variants: []*storefront.Variant{
			{ID: 10, Option1: "M", Option2: "Blue"},
		}}},
		"Orbea OIZ M10 2024": {{ID: 2, Title: "Orbea OIZ M10 2024", Variants: []*storefront.Variant{
			{ID: 20, Option1: "L", Option2: "Black"},
		}}},
	}}
}
