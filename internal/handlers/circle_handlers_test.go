package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu-finance/susu-api/internal/handlers"
	"github.com/susu-finance/susu-api/internal/ledger"
	"github.com/susu-finance/susu-api/internal/logger"
	"github.com/susu-finance/susu-api/internal/susu"
	"github.com/susu-finance/susu-api/internal/verification"
)

const testToken = "0x765de816845861e75a25fca122bb6898b8b1282a"

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type testAPI struct {
	engine *gin.Engine
	clock  *fakeClock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tokenLedger := ledger.NewMemory()
	gate := verification.NewGate(false, nil)
	registry := susu.NewRegistry(susu.RegistryConfig{
		Gate:          gate,
		Ledger:        tokenLedger,
		Logger:        logger.Log,
		Now:           clock.Now,
		CycleDuration: time.Hour,
	})

	common := handlers.NewCommonServices(registry, tokenLedger, gate)
	circleHandler := handlers.NewCircleHandler(common)
	tokenHandler := handlers.NewTokenHandler(common)
	verificationHandler := handlers.NewVerificationHandler(common)
	ledgerHandler := handlers.NewLedgerHandler(common)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/stats", circleHandler.GetStats)
	v1.GET("/tokens", tokenHandler.ListTokens)
	v1.POST("/verify", verificationHandler.Verify)
	v1.POST("/circles", circleHandler.CreateCircle)
	v1.GET("/circles", circleHandler.ListCircles)
	v1.GET("/circles/:circle_id", circleHandler.GetCircle)
	v1.GET("/circles/:circle_id/members", circleHandler.GetMembers)
	v1.GET("/circles/:circle_id/recipient", circleHandler.GetRecipient)
	v1.GET("/circles/:circle_id/time-remaining", circleHandler.GetTimeRemaining)
	v1.GET("/circles/:circle_id/contributions", circleHandler.GetContributionStatus)
	v1.POST("/circles/:circle_id/join", circleHandler.JoinCircle)
	v1.POST("/circles/:circle_id/leave", circleHandler.LeaveCircle)
	v1.POST("/circles/:circle_id/start", circleHandler.StartCircle)
	v1.POST("/circles/:circle_id/contribute", circleHandler.Contribute)
	v1.POST("/circles/:circle_id/claim", circleHandler.ClaimPayout)
	v1.POST("/ledger/mint", ledgerHandler.Mint)
	v1.POST("/ledger/approve", ledgerHandler.Approve)
	v1.GET("/ledger/balance", ledgerHandler.GetBalance)
	v1.GET("/ledger/allowance", ledgerHandler.GetAllowance)

	return &testAPI{engine: r, clock: clock}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func member(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}

func TestCircleLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	creator := member(0)
	members := []string{creator, member(1), member(2)}

	// Verify the joiners; the creator is admitted at creation.
	for _, m := range members[1:] {
		w := api.do(t, http.MethodPost, "/api/v1/verify", gin.H{"participant": m})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := api.do(t, http.MethodPost, "/api/v1/circles", gin.H{
		"name":                "rent pot",
		"token":               testToken,
		"contribution_amount": "100",
		"creator":             creator,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created handlers.CircleResponse
	decode(t, w, &created)
	assert.Equal(t, "open", created.State)
	assert.Equal(t, 1, created.MemberCount)
	circleID := created.ID

	// Fund every member and approve the circle's pool.
	for _, m := range members {
		w = api.do(t, http.MethodPost, "/api/v1/ledger/mint", gin.H{
			"token": testToken, "account": m, "amount": "1000",
		})
		require.Equal(t, http.StatusOK, w.Code)
		w = api.do(t, http.MethodPost, "/api/v1/ledger/approve", gin.H{
			"token": testToken, "owner": m, "spender": circleID, "amount": "1000",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	for _, m := range members[1:] {
		w = api.do(t, http.MethodPost, "/api/v1/circles/"+circleID+"/join", gin.H{"participant": m})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Open listing includes the circle until it starts.
	w = api.do(t, http.MethodGet, "/api/v1/circles?status=open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), circleID)

	w = api.do(t, http.MethodPost, "/api/v1/circles/"+circleID+"/start", gin.H{"participant": creator})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/circles?status=open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), circleID)

	for cycle := 1; cycle <= 3; cycle++ {
		for _, m := range members {
			w = api.do(t, http.MethodPost, "/api/v1/circles/"+circleID+"/contribute", gin.H{"participant": m})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		// Double contribution is a conflict with a specific message.
		w = api.do(t, http.MethodPost, "/api/v1/circles/"+circleID+"/contribute", gin.H{"participant": members[0]})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Already contributed")

		recipient := members[cycle-1]

		// Window has not elapsed yet.
		w = api.do(t, http.MethodPost, "/api/v1/circles/"+circleID+"/claim", gin.H{"participant": recipient})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Cycle is not complete")

		api.clock.Advance(2 * time.Hour)

		w = api.do(t, http.MethodPost, "/api/v1/circles/"+circleID+"/claim", gin.H{"participant": recipient})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = api.do(t, http.MethodGet, "/api/v1/ledger/balance?token="+testToken+"&account="+recipient, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var bal handlers.BalanceResponse
		decode(t, w, &bal)
		// 1000 minted, minus one 100 contribution per completed cycle, plus
		// the 300 pool payout.
		expected := 1000 - 100*cycle + 300
		assert.Equal(t, fmt.Sprintf("%d", expected), bal.Balance)
	}

	w = api.do(t, http.MethodGet, "/api/v1/circles/"+circleID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var final handlers.CircleResponse
	decode(t, w, &final)
	assert.Equal(t, "completed", final.State)
	assert.Equal(t, 3, final.TotalCycles)
}

func TestJoinRequiresVerificationOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	creator := member(0)

	w := api.do(t, http.MethodPost, "/api/v1/circles", gin.H{
		"name":                "pot",
		"token":               testToken,
		"contribution_amount": "100",
		"creator":             creator,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created handlers.CircleResponse
	decode(t, w, &created)

	w = api.do(t, http.MethodPost, "/api/v1/circles/"+created.ID+"/join", gin.H{"participant": member(1)})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Verification required")
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)

	// Unknown circle id.
	w := api.do(t, http.MethodGet, "/api/v1/circles/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Circle not found")

	// Malformed circle id.
	w = api.do(t, http.MethodGet, "/api/v1/circles/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unsupported token.
	w = api.do(t, http.MethodPost, "/api/v1/circles", gin.H{
		"name":                "pot",
		"token":               member(42),
		"contribution_amount": "100",
		"creator":             member(0),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid circle parameters")

	// Bad participant address.
	w = api.do(t, http.MethodPost, "/api/v1/verify", gin.H{"participant": "nobody"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndTokens(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats handlers.StatsResponse
	decode(t, w, &stats)
	assert.Equal(t, 0, stats.TotalCircles)

	w = api.do(t, http.MethodPost, "/api/v1/circles", gin.H{
		"name":                "pot",
		"token":               testToken,
		"contribution_amount": "100",
		"creator":             member(0),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/stats", nil)
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.TotalCircles)

	w = api.do(t, http.MethodGet, "/api/v1/tokens", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cUSD")
	assert.Contains(t, w.Body.String(), "cEUR")
}
