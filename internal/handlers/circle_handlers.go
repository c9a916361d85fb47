package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/susu-finance/susu-api/internal/susu"
)

// CircleHandler handles circle lifecycle and discovery operations.
type CircleHandler struct {
	common *CommonServices
}

// NewCircleHandler creates a new instance of CircleHandler.
func NewCircleHandler(common *CommonServices) *CircleHandler {
	return &CircleHandler{common: common}
}

// CreateCircleRequest represents the request body for creating a circle.
type CreateCircleRequest struct {
	Name               string `json:"name" binding:"required"`
	Token              string `json:"token" binding:"required"`
	ContributionAmount string `json:"contribution_amount" binding:"required"`
	YieldEnabled       bool   `json:"yield_enabled"`
	Creator            string `json:"creator" binding:"required"`
}

// ParticipantRequest carries the authenticated participant issuing a command.
type ParticipantRequest struct {
	Participant string `json:"participant" binding:"required"`
}

// CircleResponse represents the standardized API response for a circle.
type CircleResponse struct {
	ID                   string `json:"id"`
	Object               string `json:"object"`
	Name                 string `json:"name"`
	Token                string `json:"token"`
	ContributionAmount   string `json:"contribution_amount"`
	Creator              string `json:"creator"`
	MemberCount          int    `json:"member_count"`
	CurrentCycle         int    `json:"current_cycle"`
	TotalCycles          int    `json:"total_cycles"`
	State                string `json:"state"`
	YieldEnabled         bool   `json:"yield_enabled"`
	CycleStartTime       int64  `json:"cycle_start_time,omitempty"`
	TimeRemainingSeconds int64  `json:"time_remaining_seconds"`
}

// ContributionStatusResponse reports who has contributed for a cycle.
type ContributionStatusResponse struct {
	Cycle       int      `json:"cycle"`
	Members     []string `json:"members"`
	Contributed []bool   `json:"contributed"`
}

// StatsResponse reports registry-wide counters.
type StatsResponse struct {
	TotalCircles int `json:"total_circles"`
}

func (h *CircleHandler) toCircleResponse(c *susu.Circle) CircleResponse {
	info := c.Info()
	resp := CircleResponse{
		ID:                   info.ID.String(),
		Object:               "circle",
		Name:                 info.Name,
		Token:                info.Token,
		ContributionAmount:   info.ContributionAmount.Dec(),
		Creator:              info.Creator,
		MemberCount:          info.MemberCount,
		CurrentCycle:         info.CurrentCycle,
		TotalCycles:          info.TotalCycles,
		State:                info.State.String(),
		YieldEnabled:         info.YieldEnabled,
		TimeRemainingSeconds: int64(c.CycleTimeRemaining().Seconds()),
	}
	if !info.CycleStartTime.IsZero() {
		resp.CycleStartTime = info.CycleStartTime.Unix()
	}
	return resp
}

// parseParticipant validates and normalizes the participant address from the
// request body.
func parseParticipant(c *gin.Context) (string, bool) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Participant is required", err)
		return "", false
	}
	if !IsAddressValid(req.Participant) {
		sendError(c, http.StatusBadRequest, "Invalid participant address", nil)
		return "", false
	}
	return strings.ToLower(req.Participant), true
}

func (h *CircleHandler) circleFromPath(c *gin.Context) (*susu.Circle, bool) {
	id, err := uuid.Parse(c.Param("circle_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid circle ID format", err)
		return nil, false
	}
	circle, err := h.common.registry.Get(id)
	if err != nil {
		handleCircleError(c, err)
		return nil, false
	}
	return circle, true
}

// CreateCircle godoc
// @Summary Create a new savings circle
// @Description Creates a circle in the open state with the creator as its first member
// @Tags circles
// @Accept json
// @Produce json
// @Param request body CreateCircleRequest true "Circle parameters"
// @Success 201 {object} CircleResponse
// @Failure 400 {object} ErrorResponse
// @Router /circles [post]
func (h *CircleHandler) CreateCircle(c *gin.Context) {
	var req CreateCircleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !IsAddressValid(req.Creator) {
		sendError(c, http.StatusBadRequest, "Invalid creator address", nil)
		return
	}
	amount, err := uint256.FromDecimal(req.ContributionAmount)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid contribution amount", err)
		return
	}

	circle, err := h.common.registry.CreateCircle(c.Request.Context(), susu.CreateCircleParams{
		Name:               req.Name,
		Token:              req.Token,
		ContributionAmount: amount,
		YieldEnabled:       req.YieldEnabled,
		Creator:            strings.ToLower(req.Creator),
	})
	if err != nil {
		handleCircleError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, h.toCircleResponse(circle))
}

// ListCircles godoc
// @Summary List circles
// @Description Lists circles in creation order; status=open filters to circles accepting members
// @Tags circles
// @Produce json
// @Param offset query int false "Pagination offset"
// @Param limit query int false "Pagination limit (max 100)"
// @Param status query string false "Filter: open"
// @Success 200 {object} map[string]interface{}
// @Router /circles [get]
func (h *CircleHandler) ListCircles(c *gin.Context) {
	offset, limit := parsePagination(c)

	var ids []uuid.UUID
	if c.Query("status") == "open" {
		ids = h.common.registry.ListOpenCircles(offset, limit)
	} else {
		ids = h.common.registry.ListCircles(offset, limit)
	}

	circles := make([]CircleResponse, 0, len(ids))
	for _, id := range ids {
		circle, err := h.common.registry.Get(id)
		if err != nil {
			continue
		}
		circles = append(circles, h.toCircleResponse(circle))
	}
	sendList(c, circles)
}

// ListParticipantCircles godoc
// @Summary List circles for a participant
// @Description Lists circles the participant belongs to, or created with role=created
// @Tags circles
// @Produce json
// @Param address path string true "Participant address"
// @Param role query string false "member (default) or created"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /participants/{address}/circles [get]
func (h *CircleHandler) ListParticipantCircles(c *gin.Context) {
	address := c.Param("address")
	if !IsAddressValid(address) {
		sendError(c, http.StatusBadRequest, "Invalid participant address", nil)
		return
	}
	address = strings.ToLower(address)

	var ids []uuid.UUID
	if c.Query("role") == "created" {
		ids = h.common.registry.ListCirclesCreatedBy(address)
	} else {
		ids = h.common.registry.ListCirclesForMember(address)
	}

	circles := make([]CircleResponse, 0, len(ids))
	for _, id := range ids {
		circle, err := h.common.registry.Get(id)
		if err != nil {
			continue
		}
		circles = append(circles, h.toCircleResponse(circle))
	}
	sendList(c, circles)
}

// GetStats godoc
// @Summary Registry statistics
// @Tags circles
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /stats [get]
func (h *CircleHandler) GetStats(c *gin.Context) {
	sendSuccess(c, http.StatusOK, StatsResponse{
		TotalCircles: h.common.registry.TotalCircles(),
	})
}

// GetCircle godoc
// @Summary Get circle by ID
// @Tags circles
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Success 200 {object} CircleResponse
// @Failure 404 {object} ErrorResponse
// @Router /circles/{circle_id} [get]
func (h *CircleHandler) GetCircle(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	sendSuccess(c, http.StatusOK, h.toCircleResponse(circle))
}

// GetMembers godoc
// @Summary List circle members in payout rotation order
// @Tags circles
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /circles/{circle_id}/members [get]
func (h *CircleHandler) GetMembers(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	sendList(c, circle.Members())
}

// GetRecipient godoc
// @Summary Get the current cycle's payout recipient
// @Tags circles
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} ErrorResponse
// @Router /circles/{circle_id}/recipient [get]
func (h *CircleHandler) GetRecipient(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	recipient, err := circle.CurrentRecipient()
	if err != nil {
		handleCircleError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"recipient": recipient})
}

// GetTimeRemaining godoc
// @Summary Seconds until the current cycle window elapses
// @Tags circles
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Success 200 {object} map[string]int64
// @Router /circles/{circle_id}/time-remaining [get]
func (h *CircleHandler) GetTimeRemaining(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{
		"seconds": int64(circle.CycleTimeRemaining().Seconds()),
	})
}

// GetContributionStatus godoc
// @Summary Contribution flags per member for a cycle
// @Tags circles
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Param cycle query int false "Cycle number, defaults to the current cycle"
// @Success 200 {object} ContributionStatusResponse
// @Failure 400 {object} ErrorResponse
// @Router /circles/{circle_id}/contributions [get]
func (h *CircleHandler) GetContributionStatus(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	cycle := circle.Info().CurrentCycle
	if raw := c.Query("cycle"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			sendError(c, http.StatusBadRequest, "Invalid cycle number", err)
			return
		}
		cycle = parsed
	}
	members, contributed := circle.ContributionStatus(cycle)
	sendSuccess(c, http.StatusOK, ContributionStatusResponse{
		Cycle:       cycle,
		Members:     members,
		Contributed: contributed,
	})
}

// JoinCircle godoc
// @Summary Join an open circle
// @Tags circles
// @Accept json
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Param request body ParticipantRequest true "Joining participant"
// @Success 200 {object} CircleResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /circles/{circle_id}/join [post]
func (h *CircleHandler) JoinCircle(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	participant, ok := parseParticipant(c)
	if !ok {
		return
	}
	if err := circle.Join(c.Request.Context(), participant); err != nil {
		handleCircleError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.toCircleResponse(circle))
}

// LeaveCircle godoc
// @Summary Leave an open circle
// @Tags circles
// @Accept json
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Param request body ParticipantRequest true "Leaving participant"
// @Success 200 {object} CircleResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /circles/{circle_id}/leave [post]
func (h *CircleHandler) LeaveCircle(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	participant, ok := parseParticipant(c)
	if !ok {
		return
	}
	if err := circle.Leave(c.Request.Context(), participant); err != nil {
		handleCircleError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.toCircleResponse(circle))
}

// StartCircle godoc
// @Summary Start the rotation (creator only)
// @Tags circles
// @Accept json
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Param request body ParticipantRequest true "Caller"
// @Success 200 {object} CircleResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /circles/{circle_id}/start [post]
func (h *CircleHandler) StartCircle(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	participant, ok := parseParticipant(c)
	if !ok {
		return
	}
	if err := circle.Start(c.Request.Context(), participant); err != nil {
		handleCircleError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.toCircleResponse(circle))
}

// Contribute godoc
// @Summary Contribute to the current cycle
// @Tags circles
// @Accept json
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Param request body ParticipantRequest true "Contributing member"
// @Success 200 {object} CircleResponse
// @Failure 402 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /circles/{circle_id}/contribute [post]
func (h *CircleHandler) Contribute(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	participant, ok := parseParticipant(c)
	if !ok {
		return
	}
	if err := circle.Contribute(c.Request.Context(), participant); err != nil {
		handleCircleError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.toCircleResponse(circle))
}

// ClaimPayout godoc
// @Summary Claim the current cycle's payout
// @Tags circles
// @Accept json
// @Produce json
// @Param circle_id path string true "Circle ID"
// @Param request body ParticipantRequest true "Claiming recipient"
// @Success 200 {object} CircleResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /circles/{circle_id}/claim [post]
func (h *CircleHandler) ClaimPayout(c *gin.Context) {
	circle, ok := h.circleFromPath(c)
	if !ok {
		return
	}
	participant, ok := parseParticipant(c)
	if !ok {
		return
	}
	if err := circle.Claim(c.Request.Context(), participant); err != nil {
		handleCircleError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.toCircleResponse(circle))
}
