package port

import "context"

// NativePriceService provides cached, best-effort USD reference prices for
// native gas assets. A failed refresh reuses the last known price rather than
// failing the caller; a zero price with ok=false means no price was ever seen.
type NativePriceService interface {
	PriceUSD(ctx context.Context, symbol string) (float64, bool)
}

// PriceFeedClient fetches fresh USD quotes for a set of asset symbols from an
// external reference feed.
type PriceFeedClient interface {
	FetchUSDPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}
