package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainfund/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type stubScanner struct {
	balances []entity.ChainBalance
	err      error
}

func (s *stubScanner) Scan(context.Context, string) ([]entity.ChainBalance, error) {
	return s.balances, s.err
}

type stubPlanner struct {
	plan *entity.DepositPlan
	err  error
}

func (s *stubPlanner) Plan(context.Context, float64, []entity.ChainBalance, string, string) (*entity.DepositPlan, error) {
	return s.plan, s.err
}

func newTestRouter(scanner *stubScanner, planner *stubPlanner) *gin.Engine {
	h := NewDepositHandler(scanner, planner, nopLogger{})
	return SetupRouter(h, zap.NewNop())
}

func TestGetBalancesHandler(t *testing.T) {
	scanner := &stubScanner{balances: []entity.ChainBalance{
		{ChainID: 8453, NetworkName: "Base", TokenSymbol: "USDC", Amount: big.NewInt(25_000_000), ValueUSD: 25},
		{ChainID: 1, NetworkName: "Ethereum", TokenSymbol: "ETH", Amount: big.NewInt(0), ValueUSD: 10},
	}}
	router := newTestRouter(scanner, &stubPlanner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balances/0xholder", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		HolderAddress string  `json:"holderAddress"`
		TotalValueUSD float64 `json:"totalValueUsd"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.HolderAddress != "0xholder" || resp.TotalValueUSD != 35 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetBalancesHandlerScanFailure(t *testing.T) {
	router := newTestRouter(&stubScanner{err: entity.ErrMissingHolder}, &stubPlanner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balances/bad", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestBuildPlanHandler(t *testing.T) {
	planner := &stubPlanner{plan: &entity.DepositPlan{
		AmountUSD:       100,
		MaxSpendableUSD: 100,
		CanCoverFull:    true,
		Sources:         []entity.DepositSource{},
	}}
	router := newTestRouter(&stubScanner{}, planner)

	body := `{"amountUsd": 100, "holderAddress": "0xholder", "recipientAddress": "0xrecipient"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposit/plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var plan entity.DepositPlan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !plan.CanCoverFull || plan.AmountUSD != 100 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestBuildPlanHandlerValidation(t *testing.T) {
	router := newTestRouter(&stubScanner{}, &stubPlanner{})

	// Missing required fields.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposit/plan", strings.NewReader(`{"amountUsd": 100}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}
}

func TestBuildPlanHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid amount", entity.ErrInvalidAmount, http.StatusBadRequest},
		{"missing recipient", entity.ErrMissingRecipient, http.StatusBadRequest},
		{"registry broken", entity.ErrNoSettlementNetwork, http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	body := `{"amountUsd": 100, "holderAddress": "0xholder", "recipientAddress": "0xrecipient"}`

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubScanner{}, &stubPlanner{err: tc.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/deposit/plan", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubScanner{}, &stubPlanner{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
