package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"chainfund/internal/app/port"

	gocache "github.com/patrickmn/go-cache"
)

// nativePriceServiceImpl implements port.NativePriceService. Fresh quotes live
// in a TTL cache; every successful fetch is also copied into a last-known
// store with no expiry, so feed outages degrade to stale prices instead of
// zero-valued scans.
type nativePriceServiceImpl struct {
	feed      port.PriceFeedClient
	logger    port.Logger
	fresh     *gocache.Cache
	lastKnown *gocache.Cache
	mu        sync.Mutex // serializes refreshes for the same symbol
}

// NewNativePriceService creates a new instance of nativePriceServiceImpl.
func NewNativePriceService(feed port.PriceFeedClient, cacheTTL time.Duration, logger port.Logger) port.NativePriceService {
	return &nativePriceServiceImpl{
		feed:      feed,
		logger:    logger,
		fresh:     gocache.New(cacheTTL, cacheTTL),
		lastKnown: gocache.New(gocache.NoExpiration, 0),
	}
}

// PriceUSD returns the USD price for a native asset symbol. A refresh failure
// falls back to the last known price; ok is false only when no price has ever
// been observed for the symbol.
func (s *nativePriceServiceImpl) PriceUSD(ctx context.Context, symbol string) (float64, bool) {
	key := strings.ToUpper(symbol)

	if v, found := s.fresh.Get(key); found {
		return v.(float64), true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	if v, found := s.fresh.Get(key); found {
		return v.(float64), true
	}

	prices, err := s.feed.FetchUSDPrices(ctx, []string{key})
	if err == nil {
		if price, ok := prices[key]; ok && price > 0 {
			s.fresh.SetDefault(key, price)
			s.lastKnown.Set(key, price, gocache.NoExpiration)
			s.logger.Debug("Refreshed native asset price", "symbol", key, "price_usd", price)
			return price, true
		}
		s.logger.Warn("Price feed returned no quote for symbol", "symbol", key)
	} else {
		s.logger.Warn("Price feed refresh failed, falling back to last known price", "symbol", key, "error", err)
	}

	if v, found := s.lastKnown.Get(key); found {
		return v.(float64), true
	}
	return 0, false
}
