package restapi

import (
	"errors"
	"net/http"

	"chainfund/internal/app/port"
	"chainfund/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// DepositHandler handles HTTP requests for balance scans and deposit plans.
// Execution is not exposed over HTTP: it needs the holder's signer.
type DepositHandler struct {
	scanner port.BalanceScanner
	planner port.DepositPlanner
	logger  port.Logger
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(scanner port.BalanceScanner, planner port.DepositPlanner, logger port.Logger) *DepositHandler {
	return &DepositHandler{scanner: scanner, planner: planner, logger: logger}
}

// balancesResponse wraps a scan result.
type balancesResponse struct {
	HolderAddress string                `json:"holderAddress"`
	TotalValueUSD float64               `json:"totalValueUsd"`
	Balances      []entity.ChainBalance `json:"balances"`
}

// GetBalancesHandler returns the holder's USD-valued balances across every
// configured network.
func (h *DepositHandler) GetBalancesHandler(c *gin.Context) {
	address := c.Param("address")

	balances, err := h.scanner.Scan(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total := 0.0
	for _, b := range balances {
		total += b.ValueUSD
	}
	c.JSON(http.StatusOK, balancesResponse{
		HolderAddress: address,
		TotalValueUSD: total,
		Balances:      balances,
	})
}

// planRequest is the deposit plan endpoint payload.
type planRequest struct {
	AmountUSD        float64 `json:"amountUsd" binding:"required"`
	HolderAddress    string  `json:"holderAddress" binding:"required"`
	RecipientAddress string  `json:"recipientAddress" binding:"required"`
}

// BuildPlanHandler scans the holder's balances and builds a deposit plan for
// the requested amount.
func (h *DepositHandler) BuildPlanHandler(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	balances, err := h.scanner.Scan(ctx, req.HolderAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.planner.Plan(ctx, req.AmountUSD, balances, req.HolderAddress, req.RecipientAddress)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, entity.ErrInvalidAmount) ||
			errors.Is(err, entity.ErrMissingHolder) ||
			errors.Is(err, entity.ErrMissingRecipient) {
			status = http.StatusBadRequest
		}
		h.logger.Error("Failed to build deposit plan", "holder", req.HolderAddress, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, plan)
}
