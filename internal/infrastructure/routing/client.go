package routing

import (
	"context"
	"math/big"
	"net/http"
	"strings"
	"time"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// quoteRequest is the aggregator's quote endpoint payload.
type quoteRequest struct {
	FromChain   uint64 `json:"fromChain"`
	ToChain     uint64 `json:"toChain"`
	FromToken   string `json:"fromToken"`
	ToToken     string `json:"toToken"`
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	FromAmount  string `json:"fromAmount"`
}

type txRequestPayload struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	ChainID  uint64 `json:"chainId"`
	GasLimit uint64 `json:"gasLimit"`
}

type quoteStep struct {
	Type               string           `json:"type"`
	Tool               string           `json:"tool"`
	TransactionRequest txRequestPayload `json:"transactionRequest"`
}

type quoteResponse struct {
	ID       string `json:"id"`
	Estimate struct {
		ExecutionDuration int64   `json:"executionDuration"`
		FeeUSD            float64 `json:"feeUsd"`
	} `json:"estimate"`
	Steps []quoteStep `json:"steps"`
}

type statusResponse struct {
	Status    string `json:"status"`
	Substatus string `json:"substatus"`
	Message   string `json:"message"`
}

// aggregator status values.
const (
	statusPending = "PENDING"
	statusDone    = "DONE"
	statusFailed  = "FAILED"
)

// BridgeRouteClient implements port.RouteProvider against a bridge
// aggregator's REST API. All outbound calls share one rate limiter.
type BridgeRouteClient struct {
	http       *resty.Client
	limiter    *rate.Limiter
	statusPoll time.Duration
	logger     port.Logger
}

// NewBridgeRouteClient creates a route client for the aggregator at baseURL.
func NewBridgeRouteClient(baseURL string, requestTimeout time.Duration, requestsPerSecond float64, statusPoll time.Duration, logger port.Logger) *BridgeRouteClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")

	return &BridgeRouteClient{
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		statusPoll: statusPoll,
		logger:     logger,
	}
}

// GetRoutes quotes the best route for the query. A 404 from the aggregator
// maps to entity.ErrRouteUnavailable.
func (c *BridgeRouteClient) GetRoutes(ctx context.Context, query entity.RouteQuery) (*entity.Route, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter interrupted")
	}

	body := quoteRequest{
		FromChain:   query.FromChainID,
		ToChain:     query.ToChainID,
		FromToken:   query.FromTokenAddress,
		ToToken:     query.ToTokenAddress,
		FromAddress: query.FromAddress,
		ToAddress:   query.ToAddress,
		FromAmount:  query.Amount.String(),
	}

	var quote quoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&quote).
		Post("/v1/quote")
	if err != nil {
		return nil, errors.Wrap(err, "quote request failed")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.Wrapf(entity.ErrRouteUnavailable,
			"chain %d -> %d token %s", query.FromChainID, query.ToChainID, query.FromTokenAddress)
	}
	if resp.IsError() {
		return nil, errors.Errorf("quote request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(quote.Steps) == 0 {
		return nil, errors.Wrap(entity.ErrRouteUnavailable, "quote contained no executable steps")
	}

	route := &entity.Route{
		ID:               quote.ID,
		FromChainID:      query.FromChainID,
		ToChainID:        query.ToChainID,
		FromTokenAddress: query.FromTokenAddress,
		ToTokenAddress:   query.ToTokenAddress,
		FromAddress:      query.FromAddress,
		ToAddress:        query.ToAddress,
		FromAmount:       new(big.Int).Set(query.Amount),
		EstimatedSeconds: quote.Estimate.ExecutionDuration,
		FeeUSD:           quote.Estimate.FeeUSD,
	}
	for _, step := range quote.Steps {
		tx, err := decodeTxRequest(step.TransactionRequest)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed transaction request in step %q", step.Type)
		}
		route.Steps = append(route.Steps, entity.RouteStep{
			Type: normalizeStepType(step.Type),
			Tool: step.Tool,
			Tx:   tx,
		})
	}

	c.logger.Debug("Quoted bridge route",
		"route_id", route.ID, "steps", len(route.Steps),
		"estimated_seconds", route.EstimatedSeconds, "fee_usd", route.FeeUSD)
	return route, nil
}

// ExecuteRoute drives each quoted step through the signer and polls the
// aggregator's status endpoint until the step settles. Progress events repeat
// while polling; consumers coalesce them.
func (c *BridgeRouteClient) ExecuteRoute(ctx context.Context, route *entity.Route, signer port.Signer, onProgress port.RouteProgressFunc) error {
	if onProgress == nil {
		onProgress = func(entity.RouteProgress) {}
	}

	for _, step := range route.Steps {
		onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseActionRequired})

		txHash, err := signer.SendTransaction(ctx, step.Tx)
		if err != nil {
			wrapped := errors.Wrapf(err, "broadcast failed for step %q", step.Type)
			onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseFailed, Err: wrapped})
			return wrapped
		}
		onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseInFlight, TxHash: txHash})

		if err := c.awaitStep(ctx, route.ID, step, txHash, onProgress); err != nil {
			return err
		}
	}
	return nil
}

// awaitStep polls the aggregator until the step's transaction is settled.
func (c *BridgeRouteClient) awaitStep(ctx context.Context, routeID string, step entity.RouteStep, txHash string, onProgress port.RouteProgressFunc) error {
	ticker := time.NewTicker(c.statusPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := errors.Wrapf(ctx.Err(), "interrupted while awaiting step %q", step.Type)
			onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseFailed, TxHash: txHash, Err: err})
			return err
		case <-ticker.C:
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter interrupted")
		}

		var status statusResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{"routeId": routeID, "txHash": txHash}).
			SetResult(&status).
			Get("/v1/status")
		if err != nil || resp.IsError() {
			// Transient status failures keep the poll loop alive; the
			// transaction itself is already on chain.
			c.logger.Warn("Status poll failed, retrying", "route_id", routeID, "tx_hash", txHash, "error", err)
			onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseInFlight, TxHash: txHash})
			continue
		}

		switch status.Status {
		case statusDone:
			onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseDone, TxHash: txHash})
			return nil
		case statusFailed:
			err := errors.Errorf("step %q failed: %s", step.Type, status.Message)
			onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseFailed, TxHash: txHash, Err: err})
			return err
		case statusPending:
			onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseInFlight, TxHash: txHash})
		default:
			c.logger.Warn("Unknown aggregator status, treating as pending",
				"route_id", routeID, "status", status.Status, "substatus", status.Substatus)
			onProgress(entity.RouteProgress{Step: step.Type, Phase: entity.RoutePhaseInFlight, TxHash: txHash})
		}
	}
}

func decodeTxRequest(p txRequestPayload) (entity.TxRequest, error) {
	tx := entity.TxRequest{
		ChainID:  p.ChainID,
		To:       p.To,
		GasLimit: p.GasLimit,
		Value:    big.NewInt(0),
	}

	if p.Data != "" {
		data, err := hexutil.Decode(p.Data)
		if err != nil {
			return entity.TxRequest{}, errors.Wrap(err, "invalid calldata")
		}
		tx.Data = data
	}

	if p.Value != "" && p.Value != "0" {
		if strings.HasPrefix(p.Value, "0x") {
			v, err := hexutil.DecodeBig(p.Value)
			if err != nil {
				return entity.TxRequest{}, errors.Wrap(err, "invalid hex value")
			}
			tx.Value = v
		} else {
			v, ok := new(big.Int).SetString(p.Value, 10)
			if !ok {
				return entity.TxRequest{}, errors.Errorf("invalid decimal value %q", p.Value)
			}
			tx.Value = v
		}
	}
	return tx, nil
}

// normalizeStepType maps aggregator step vocabulary onto the route step
// constants the orchestrator understands.
func normalizeStepType(t string) string {
	switch strings.ToLower(t) {
	case "approve", "approval", "allowance":
		return entity.RouteStepApprove
	case "permit", "sign":
		return entity.RouteStepPermit
	case "swap", "exchange":
		return entity.RouteStepSwap
	case "cross", "bridge", "lifi", "relay":
		return entity.RouteStepBridge
	case "receive", "claim", "destination":
		return entity.RouteStepReceive
	default:
		return entity.RouteStepBridge
	}
}

var _ port.RouteProvider = (*BridgeRouteClient)(nil)
