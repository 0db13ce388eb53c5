package pricefeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chainfund/internal/app/port"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// coin ids the simple-price API understands, keyed by asset symbol.
var coinIDsBySymbol = map[string]string{
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
	"POL":   "matic-network",
	"AVAX":  "avalanche-2",
	"FTM":   "fantom",
}

// Client fetches USD reference prices for native gas assets from a
// coingecko-style simple-price API.
type Client struct {
	client     *fasthttp.Client
	baseURL    string
	vsCurrency string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a new price feed client.
func NewClient(baseURL, vsCurrency string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		client:     &fasthttp.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		vsCurrency: strings.ToLower(vsCurrency),
		timeout:    timeout,
		logger:     logger.Named("PriceFeedClient"),
	}
}

// FetchUSDPrices implements port.PriceFeedClient. Symbols with no known coin
// id are skipped, not failed.
func (c *Client) FetchUSDPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	ids := make([]string, 0, len(symbols))
	symbolByID := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		id, ok := coinIDsBySymbol[strings.ToUpper(sym)]
		if !ok {
			c.logger.Warn("No feed coin id known for symbol, skipping", zap.String("symbol", sym))
			continue
		}
		ids = append(ids, id)
		symbolByID[id] = strings.ToUpper(sym)
	}
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	requestURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, strings.Join(ids, ","), c.vsCurrency)
	c.logger.Debug("Requesting native asset prices", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute price feed request", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute price feed request (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Price feed API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("price feed request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var decoded map[string]map[string]float64
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		c.logger.Error("Failed to unmarshal price feed response",
			zap.String("url", requestURL), zap.ByteString("responseBody", rawBody), zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal price feed response from %s: %w", requestURL, err)
	}

	prices := make(map[string]float64, len(decoded))
	for id, quote := range decoded {
		sym, ok := symbolByID[id]
		if !ok {
			continue
		}
		if price, ok := quote[c.vsCurrency]; ok && price > 0 {
			prices[sym] = price
		}
	}

	c.logger.Debug("Fetched native asset prices", zap.Int("count", len(prices)))
	return prices, nil
}

var _ port.PriceFeedClient = (*Client)(nil)
