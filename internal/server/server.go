package server

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/susu-finance/susu-api/internal/events"
	"github.com/susu-finance/susu-api/internal/handlers"
	"github.com/susu-finance/susu-api/internal/ledger"
	"github.com/susu-finance/susu-api/internal/logger"
	"github.com/susu-finance/susu-api/internal/scheduler"
	"github.com/susu-finance/susu-api/internal/susu"
	"github.com/susu-finance/susu-api/internal/verification"
	"github.com/susu-finance/susu-api/internal/yield"
)

// Handler Definitions
var (
	circleHandler       *handlers.CircleHandler
	tokenHandler        *handlers.TokenHandler
	verificationHandler *handlers.VerificationHandler
	ledgerHandler       *handlers.LedgerHandler

	registry          *susu.Registry
	eventJournal      *events.Journal
	deadlineScheduler *scheduler.DeadlineScheduler
)

// InitializeHandlers builds the engine, its collaborators, and the handler
// set from environment configuration.
func InitializeHandlers() {
	ctx := context.Background()

	tokenLedger := ledger.NewMemory()

	allowAll := os.Getenv("VERIFY_ALL") == "true"
	var seed []string
	if raw := os.Getenv("VERIFIED_ADDRESSES"); raw != "" {
		seed = strings.Split(raw, ",")
	}
	gate := verification.NewGate(allowAll, seed)

	yieldRateBps := uint64(50)
	if raw := os.Getenv("YIELD_RATE_BPS"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			logger.Fatal("Invalid YIELD_RATE_BPS", zap.String("value", raw), zap.Error(err))
		}
		yieldRateBps = parsed
	}
	yieldVenue := yield.NewMemory(yieldRateBps, tokenLedger)

	cycleDuration := susu.DefaultCycleDuration
	if raw := os.Getenv("CYCLE_DURATION_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			logger.Fatal("Invalid CYCLE_DURATION_SECONDS", zap.String("value", raw))
		}
		cycleDuration = time.Duration(seconds) * time.Second
	}

	sinks := events.Fanout{events.NewLogSink(logger.Log)}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		journal, err := events.NewJournal(ctx, dbURL, logger.Log)
		if err != nil {
			logger.Fatal("Unable to open event journal", zap.Error(err))
		}
		eventJournal = journal
		sinks = append(sinks, journal)
	}
	if queueURL := os.Getenv("EVENTS_QUEUE_URL"); queueURL != "" {
		publisher, err := events.NewPublisher(ctx, queueURL, logger.Log)
		if err != nil {
			logger.Fatal("Unable to create event publisher", zap.Error(err))
		}
		sinks = append(sinks, publisher)
	}

	registry = susu.NewRegistry(susu.RegistryConfig{
		Gate:          gate,
		Ledger:        tokenLedger,
		Yield:         yieldVenue,
		Sink:          sinks,
		Logger:        logger.Log,
		CycleDuration: cycleDuration,
	})

	cronSpec := os.Getenv("DEADLINE_CRON_SPEC")
	if cronSpec == "" {
		cronSpec = "*/5 * * * *"
	}
	deadlineScheduler = scheduler.New(registry, logger.Log, cronSpec)
	if err := deadlineScheduler.Start(); err != nil {
		logger.Fatal("Unable to start deadline scheduler", zap.Error(err))
	}

	commonServices := handlers.NewCommonServices(registry, tokenLedger, gate)
	circleHandler = handlers.NewCircleHandler(commonServices)
	tokenHandler = handlers.NewTokenHandler(commonServices)
	verificationHandler = handlers.NewVerificationHandler(commonServices)
	ledgerHandler = handlers.NewLedgerHandler(commonServices)
}

// InitializeRoutes mounts middleware and the API surface on the router.
func InitializeRoutes(r *gin.Engine) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", handlers.HealthCheck)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/stats", circleHandler.GetStats)
		v1.GET("/tokens", tokenHandler.ListTokens)
		v1.POST("/verify", verificationHandler.Verify)

		circles := v1.Group("/circles")
		{
			circles.POST("", circleHandler.CreateCircle)
			circles.GET("", circleHandler.ListCircles)
			circles.GET("/:circle_id", circleHandler.GetCircle)
			circles.GET("/:circle_id/members", circleHandler.GetMembers)
			circles.GET("/:circle_id/recipient", circleHandler.GetRecipient)
			circles.GET("/:circle_id/time-remaining", circleHandler.GetTimeRemaining)
			circles.GET("/:circle_id/contributions", circleHandler.GetContributionStatus)
			circles.POST("/:circle_id/join", circleHandler.JoinCircle)
			circles.POST("/:circle_id/leave", circleHandler.LeaveCircle)
			circles.POST("/:circle_id/start", circleHandler.StartCircle)
			circles.POST("/:circle_id/contribute", circleHandler.Contribute)
			circles.POST("/:circle_id/claim", circleHandler.ClaimPayout)
		}

		participants := v1.Group("/participants")
		{
			participants.GET("/:address/circles", circleHandler.ListParticipantCircles)
		}

		devLedger := v1.Group("/ledger")
		{
			devLedger.POST("/mint", ledgerHandler.Mint)
			devLedger.POST("/approve", ledgerHandler.Approve)
			devLedger.GET("/balance", ledgerHandler.GetBalance)
			devLedger.GET("/allowance", ledgerHandler.GetAllowance)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "Route not found"})
	})
}

// Shutdown stops background workers and flushes external resources.
func Shutdown() {
	if deadlineScheduler != nil {
		deadlineScheduler.Stop()
	}
	if eventJournal != nil {
		eventJournal.Close()
	}
}
