package handlers

import (
	"github.com/gin-gonic/gin"
)

// TokenHandler serves the supported contribution asset catalog.
type TokenHandler struct {
	common *CommonServices
}

// NewTokenHandler creates a new instance of TokenHandler.
func NewTokenHandler(common *CommonServices) *TokenHandler {
	return &TokenHandler{common: common}
}

// ListTokens godoc
// @Summary List supported contribution tokens
// @Tags tokens
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /tokens [get]
func (h *TokenHandler) ListTokens(c *gin.Context) {
	sendList(c, h.common.registry.SupportedTokens())
}
