package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
)

// LedgerHandler exposes the development token ledger: a faucet for minting
// test balances, approvals, and balance/allowance queries. Deployments
// backed by a real asset ledger do not mount these routes.
type LedgerHandler struct {
	common *CommonServices
}

// NewLedgerHandler creates a new instance of LedgerHandler.
func NewLedgerHandler(common *CommonServices) *LedgerHandler {
	return &LedgerHandler{common: common}
}

// MintRequest represents the request body for minting test funds.
type MintRequest struct {
	Token   string `json:"token" binding:"required"`
	Account string `json:"account" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// ApproveRequest represents the request body for approving a spender.
type ApproveRequest struct {
	Token   string `json:"token" binding:"required"`
	Owner   string `json:"owner" binding:"required"`
	Spender string `json:"spender" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// BalanceResponse reports an account's token balance.
type BalanceResponse struct {
	Token   string `json:"token"`
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// AllowanceResponse reports a spender's remaining allowance.
type AllowanceResponse struct {
	Token     string `json:"token"`
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

// Mint godoc
// @Summary Mint test funds to an account
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body MintRequest true "Mint parameters"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} ErrorResponse
// @Router /ledger/mint [post]
func (h *LedgerHandler) Mint(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	token, account := strings.ToLower(req.Token), strings.ToLower(req.Account)
	h.common.ledger.Mint(token, account, amount)
	sendSuccess(c, http.StatusOK, BalanceResponse{
		Token:   token,
		Account: account,
		Balance: h.common.ledger.BalanceOf(token, account).Dec(),
	})
}

// Approve godoc
// @Summary Approve a spender over an owner's funds
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body ApproveRequest true "Approval parameters"
// @Success 200 {object} AllowanceResponse
// @Failure 400 {object} ErrorResponse
// @Router /ledger/approve [post]
func (h *LedgerHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	token, owner, spender := strings.ToLower(req.Token), strings.ToLower(req.Owner), strings.ToLower(req.Spender)
	h.common.ledger.Approve(token, owner, spender, amount)
	sendSuccess(c, http.StatusOK, AllowanceResponse{
		Token:     token,
		Owner:     owner,
		Spender:   spender,
		Allowance: amount.Dec(),
	})
}

// GetBalance godoc
// @Summary Get an account's token balance
// @Tags ledger
// @Produce json
// @Param token query string true "Token address"
// @Param account query string true "Account"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} ErrorResponse
// @Router /ledger/balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	token, account := c.Query("token"), c.Query("account")
	if token == "" || account == "" {
		sendError(c, http.StatusBadRequest, "token and account are required", nil)
		return
	}
	token, account = strings.ToLower(token), strings.ToLower(account)
	sendSuccess(c, http.StatusOK, BalanceResponse{
		Token:   token,
		Account: account,
		Balance: h.common.ledger.BalanceOf(token, account).Dec(),
	})
}

// GetAllowance godoc
// @Summary Get a spender's remaining allowance
// @Tags ledger
// @Produce json
// @Param token query string true "Token address"
// @Param owner query string true "Owner"
// @Param spender query string true "Spender"
// @Success 200 {object} AllowanceResponse
// @Failure 400 {object} ErrorResponse
// @Router /ledger/allowance [get]
func (h *LedgerHandler) GetAllowance(c *gin.Context) {
	token, owner, spender := c.Query("token"), c.Query("owner"), c.Query("spender")
	if token == "" || owner == "" || spender == "" {
		sendError(c, http.StatusBadRequest, "token, owner and spender are required", nil)
		return
	}
	token, owner, spender = strings.ToLower(token), strings.ToLower(owner), strings.ToLower(spender)
	allowance, err := h.common.ledger.Allowance(c.Request.Context(), token, owner, spender)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	sendSuccess(c, http.StatusOK, AllowanceResponse{
		Token:     token,
		Owner:     owner,
		Spender:   spender,
		Allowance: allowance.Dec(),
	})
}
