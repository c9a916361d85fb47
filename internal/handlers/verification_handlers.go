package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// VerificationHandler records proof-of-personhood credentials. The proof
// payload is opaque here: the external provider has already validated it by
// the time this endpoint is called, the engine only needs the resulting
// boolean credential.
type VerificationHandler struct {
	common *CommonServices
}

// NewVerificationHandler creates a new instance of VerificationHandler.
func NewVerificationHandler(common *CommonServices) *VerificationHandler {
	return &VerificationHandler{common: common}
}

// VerifyRequest represents the request body for marking a participant
// verified.
type VerifyRequest struct {
	Participant string          `json:"participant" binding:"required"`
	Proof       json.RawMessage `json:"proof"`
}

// Verify godoc
// @Summary Mark a participant as a verified unique human
// @Tags verification
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Participant and proof payload"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /verify [post]
func (h *VerificationHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !IsAddressValid(req.Participant) {
		sendError(c, http.StatusBadRequest, "Invalid participant address", nil)
		return
	}
	h.common.gate.MarkVerified(strings.ToLower(req.Participant))
	sendSuccessMessage(c, http.StatusOK, "Participant verified")
}
