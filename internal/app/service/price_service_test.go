package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakePriceFeed replays scripted responses and counts fetches.
type fakePriceFeed struct {
	responses []map[string]float64
	errs      []error
	calls     int
}

func (f *fakePriceFeed) FetchUSDPrices(_ context.Context, _ []string) (map[string]float64, error) {
	i := f.calls
	f.calls++
	var resp map[string]float64
	var err error
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func TestPriceUSDCachesFreshQuotes(t *testing.T) {
	feed := &fakePriceFeed{
		responses: []map[string]float64{{"ETH": 2500}},
	}
	svc := NewNativePriceService(feed, time.Minute, nopLogger{})
	ctx := context.Background()

	price, ok := svc.PriceUSD(ctx, "eth")
	if !ok || price != 2500 {
		t.Fatalf("expected 2500, got %.2f ok=%v", price, ok)
	}
	// Second lookup within the TTL must hit the cache, not the feed.
	if _, ok := svc.PriceUSD(ctx, "ETH"); !ok {
		t.Fatal("cached lookup should succeed")
	}
	if feed.calls != 1 {
		t.Fatalf("expected a single feed call, got %d", feed.calls)
	}
}

func TestPriceUSDFallsBackToLastKnownOnFeedFailure(t *testing.T) {
	feed := &fakePriceFeed{
		responses: []map[string]float64{{"ETH": 2500}, nil},
		errs:      []error{nil, errors.New("feed unavailable")},
	}
	// A tiny TTL expires the fresh cache between lookups, forcing a refresh.
	svc := NewNativePriceService(feed, time.Millisecond, nopLogger{})
	ctx := context.Background()

	if price, ok := svc.PriceUSD(ctx, "ETH"); !ok || price != 2500 {
		t.Fatalf("first fetch should succeed, got %.2f ok=%v", price, ok)
	}
	time.Sleep(5 * time.Millisecond)

	price, ok := svc.PriceUSD(ctx, "ETH")
	if !ok {
		t.Fatal("a feed outage must fall back to the last known price")
	}
	if price != 2500 {
		t.Fatalf("expected the stale 2500, got %.2f", price)
	}
}

func TestPriceUSDUnknownSymbol(t *testing.T) {
	feed := &fakePriceFeed{errs: []error{errors.New("feed unavailable")}}
	svc := NewNativePriceService(feed, time.Minute, nopLogger{})

	if price, ok := svc.PriceUSD(context.Background(), "XYZ"); ok || price != 0 {
		t.Fatalf("never-seen symbol must report no price, got %.2f ok=%v", price, ok)
	}
}
