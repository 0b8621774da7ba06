// Package httpapi exposes the engine over a JSON HTTP API: the append-only
// dataset ledgers, the derived calculators, compliance, and the full
// reconciliation report.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/adapter/quote"
	"github.com/yuchinglo/trifolio-backend/internal/adapter/repository/csvstore"
	"github.com/yuchinglo/trifolio-backend/internal/common"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/reconcile"
)

// FXRateProvider supplies the USD→TWD reference rate
type FXRateProvider interface {
	USDToTWD(ctx context.Context) (decimal.Decimal, error)
}

// SentimentProvider supplies the fear-and-greed index reading
type SentimentProvider interface {
	Get(ctx context.Context) (*quote.SentimentIndex, error)
}

// Server wires the reconciliation service and its collaborators into an
// HTTP router. All mutating routes are append-only; rows are validated and
// normalized before they reach a repository.
type Server struct {
	logger *common.Logger
	svc    *reconcile.Service

	fx        FXRateProvider
	sentiment SentimentProvider
	csv       *csvstore.Store

	authToken  string
	fallbackFX decimal.Decimal

	policyStart       time.Time
	minMonthly        decimal.Decimal
	maxLotteryPercent decimal.Decimal

	now func() time.Time
}

// Option configures the server
type Option func(*Server)

// WithAuthToken enables bearer-token auth on the API routes. An empty
// token leaves the API open (local development).
func WithAuthToken(token string) Option {
	return func(s *Server) { s.authToken = token }
}

// WithFXProvider sets the FX rate collaborator
func WithFXProvider(fx FXRateProvider) Option {
	return func(s *Server) { s.fx = fx }
}

// WithSentimentProvider sets the sentiment collaborator
func WithSentimentProvider(p SentimentProvider) Option {
	return func(s *Server) { s.sentiment = p }
}

// WithCSVStore enables the CSV import/export routes
func WithCSVStore(store *csvstore.Store) Option {
	return func(s *Server) { s.csv = store }
}

// WithCompliancePolicy sets the plan-compliance thresholds
func WithCompliancePolicy(start time.Time, minMonthly, maxLotteryPercent decimal.Decimal) Option {
	return func(s *Server) {
		s.policyStart = start
		s.minMonthly = minMonthly
		s.maxLotteryPercent = maxLotteryPercent
	}
}

// WithFallbackFXRate sets the USD→TWD rate used when the FX lookup fails
// and the rate stamped on plan rows submitted without one
func WithFallbackFXRate(rate decimal.Decimal) Option {
	return func(s *Server) { s.fallbackFX = rate }
}

// WithClock overrides the server clock; used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new API server around the reconciliation service
func NewServer(logger *common.Logger, svc *reconcile.Service, opts ...Option) *Server {
	s := &Server{
		logger:            logger,
		svc:               svc,
		fallbackFX:        decimal.NewFromFloat(31.5),
		policyStart:       time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		minMonthly:        decimal.NewFromInt(300),
		maxLotteryPercent: decimal.NewFromInt(10),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with the full route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/plans", s.handleListPlans)
		r.Post("/plans", s.handleCreatePlan)
		r.Get("/allocations", s.handleListAllocations)
		r.Post("/allocations", s.handleCreateAllocation)
		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Get("/options", s.handleListOptions)
		r.Post("/options", s.handleCreateOption)

		r.Get("/holdings", s.handleHoldings)
		r.Get("/costbasis", s.handleCostBasis)
		r.Get("/collateral", s.handleCollateral)
		r.Get("/marketvalue", s.handleMarketValue)
		r.Get("/stats", s.handleStats)

		r.Get("/allocation/{bucket}/distribution", s.handleDistribution)
		r.Get("/allocation/{bucket}/ladder", s.handleLadder)

		r.Get("/compliance", s.handleCompliance)
		r.Get("/reconciliation", s.handleReconciliation)
		r.Get("/reconciliation/{bucket}", s.handleBucketReconciliation)

		r.Get("/fx", s.handleFX)
		r.Get("/sentiment", s.handleSentiment)

		if s.csv != nil {
			r.Post("/export", s.handleExport)
			r.Post("/import", s.handleImport)
		}
	})

	return r
}

// authMiddleware enforces the bearer token on API routes. The token is a
// static shared secret; this is a single-user deployment.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != s.authToken {
			s.respondError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
