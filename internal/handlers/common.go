package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/susu-finance/susu-api/internal/ledger"
	"github.com/susu-finance/susu-api/internal/logger"
	"github.com/susu-finance/susu-api/internal/susu"
	"github.com/susu-finance/susu-api/internal/verification"
)

// CommonServices holds the shared dependencies used across handlers.
type CommonServices struct {
	registry *susu.Registry
	ledger   *ledger.Memory
	gate     *verification.Gate
}

// NewCommonServices creates a new instance of CommonServices.
func NewCommonServices(registry *susu.Registry, l *ledger.Memory, gate *verification.Gate) *CommonServices {
	return &CommonServices{
		registry: registry,
		ledger:   l,
		gate:     gate,
	}
}

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response.
type SuccessResponse struct {
	Message string `json:"message"`
}

// sendError logs the error and sends a JSON error response.
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// sendSuccess sends a success response with a payload.
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendSuccessMessage sends a bare success message.
func sendSuccessMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, SuccessResponse{Message: message})
}

// sendList sends a list response.
func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}

// handleCircleError translates the engine's error taxonomy into HTTP
// statuses and user-facing messages. Every distinct failure keeps its own
// message; nothing collapses into a generic "failed".
func handleCircleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, susu.ErrCircleNotFound):
		sendError(c, http.StatusNotFound, "Circle not found", err)
	case errors.Is(err, susu.ErrInvalidArgument):
		sendError(c, http.StatusBadRequest, "Invalid circle parameters", err)
	case errors.Is(err, susu.ErrCircleNotOpen):
		sendError(c, http.StatusConflict, "Circle is not open", err)
	case errors.Is(err, susu.ErrCircleNotActive):
		sendError(c, http.StatusConflict, "Circle is not active", err)
	case errors.Is(err, susu.ErrAlreadyMember):
		sendError(c, http.StatusConflict, "Already a member of this circle", err)
	case errors.Is(err, susu.ErrNotMember):
		sendError(c, http.StatusForbidden, "Not a member of this circle", err)
	case errors.Is(err, susu.ErrCreatorCannotLeave):
		sendError(c, http.StatusForbidden, "Creator cannot leave their own circle", err)
	case errors.Is(err, susu.ErrCircleFull):
		sendError(c, http.StatusConflict, "Circle is full", err)
	case errors.Is(err, susu.ErrInsufficientMembers):
		sendError(c, http.StatusConflict, "Not enough members to start the circle", err)
	case errors.Is(err, susu.ErrNotVerified):
		sendError(c, http.StatusForbidden, "Verification required before joining", err)
	case errors.Is(err, susu.ErrAlreadyContributed):
		sendError(c, http.StatusConflict, "Already contributed this cycle", err)
	case errors.Is(err, susu.ErrCycleIncomplete):
		sendError(c, http.StatusConflict, "Cycle is not complete", err)
	case errors.Is(err, susu.ErrAlreadyClaimed):
		sendError(c, http.StatusConflict, "Already claimed this cycle", err)
	case errors.Is(err, susu.ErrUnauthorized):
		sendError(c, http.StatusForbidden, "Unauthorized action", err)
	case errors.Is(err, susu.ErrTransferFailed):
		sendError(c, http.StatusPaymentRequired, "Token transfer failed. Check balance and approval", err)
	default:
		sendError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// IsAddressValid checks whether a participant identifier is a well-formed
// 0x-prefixed 20-byte hex address.
func IsAddressValid(address string) bool {
	if len(address) != 42 {
		return false
	}
	if address[0] != '0' || address[1] != 'x' {
		return false
	}
	for _, r := range address[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// parsePagination reads offset/limit query parameters with sane defaults.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return offset, limit
}
