//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchinglo/trifolio-backend/internal/adapter/httpapi"
	"github.com/yuchinglo/trifolio-backend/internal/adapter/repository/postgres"
	"github.com/yuchinglo/trifolio-backend/internal/common"
	"github.com/yuchinglo/trifolio-backend/internal/domain"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/marketvalue"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/reconcile"
)

const apiToken = "integration-token"

var db *postgres.DB

// TestMain sets up the test environment: a real postgres schema behind an
// in-process HTTP server.
func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	db, err = postgres.NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		panic(fmt.Sprintf("Failed to ensure schema: %v", err))
	}

	os.Exit(m.Run())
}

func getDBConnectionString() string {
	if s := os.Getenv("TRIFOLIO_TEST_DB_CONN_STR"); s != "" {
		return s
	}
	return "host=localhost port=5432 user=postgres password=postgres dbname=trifolio_test sslmode=disable"
}

// fixedQuotes serves deterministic prices so assertions don't depend on
// live market data
type fixedQuotes struct{}

func (fixedQuotes) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	switch symbol {
	case "VOO":
		return decimal.NewFromInt(220), nil
	case "TSLA":
		return decimal.NewFromInt(310), nil
	}
	return decimal.Zero, fmt.Errorf("no fixture price for %s", symbol)
}

func truncateAll(t *testing.T) {
	t.Helper()
	for _, table := range []string{"plan_entries", "bucket_allocations", "stock_transactions", "option_positions"} {
		_, err := db.ExecContext(context.Background(), "TRUNCATE TABLE "+table)
		require.NoError(t, err)
	}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := reconcile.NewService(
		postgres.NewPlanRepository(db),
		postgres.NewAllocationRepository(db),
		postgres.NewTransactionRepository(db),
		postgres.NewOptionRepository(db),
		marketvalue.NewService(fixedQuotes{}),
		domain.DefaultFeePolicy(),
	).WithClock(func() time.Time { return time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC) })

	api := httpapi.NewServer(common.NewSilentLogger(), svc,
		httpapi.WithAuthToken(apiToken),
		httpapi.WithClock(func() time.Time { return time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC) }),
	)

	ts := httptest.NewServer(api.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body map[string]any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+apiToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, url string, out any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+apiToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestE2E_PlanLedgerReconciliation(t *testing.T) {
	truncateAll(t)
	ts := startServer(t)

	resp := post(t, ts.URL+"/api/v1/plans", map[string]any{
		"month": "2026-04", "bucket": "CONSERVATIVE", "planned_amount": "500", "fx_rate": "31.5",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, ts.URL+"/api/v1/transactions", map[string]any{
		"date": "2026-04-10", "action": "BUY", "bucket": "CONSERVATIVE",
		"instrument_code": "VOO", "quantity": "2", "price": "200",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var report domain.Report
	get(t, ts.URL+"/api/v1/reconciliation", &report)

	require.Len(t, report.Buckets, 3)
	assert.True(t, report.TotalPlanned.Equal(decimal.NewFromInt(500)))
	assert.True(t, report.TotalActual.Equal(decimal.NewFromFloat(400.57)), "got %s", report.TotalActual)
	assert.True(t, report.TotalMarketValue.Equal(decimal.NewFromInt(440)), "got %s", report.TotalMarketValue)
}

func TestE2E_OptionCollateralSurvivesRestart(t *testing.T) {
	truncateAll(t)
	ts := startServer(t)

	resp := post(t, ts.URL+"/api/v1/options", map[string]any{
		"trade_date": "2026-04-01", "underlying": "TSLA", "strike": "250",
		"expiry": "2026-07-17", "right": "PUT", "direction": "SELL",
		"contracts": 1, "premium": "3.5", "margin": "5000",
		"funding_source": "AGGRESSIVE",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	ts.Close()

	// A second server over the same database sees the persisted position.
	ts2 := startServer(t)
	var out struct {
		Total decimal.Decimal `json:"total"`
	}
	get(t, ts2.URL+"/api/v1/collateral?target=AGGRESSIVE", &out)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(5000)), "got %s", out.Total)
}

func TestE2E_ComplianceOverPersistedPlan(t *testing.T) {
	truncateAll(t)
	ts := startServer(t)

	for _, month := range []string{"2026-01", "2026-03"} {
		resp := post(t, ts.URL+"/api/v1/plans", map[string]any{
			"month": month, "bucket": "CONSERVATIVE", "planned_amount": "300", "fx_rate": "31.5",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	var result struct {
		MissingMonths []time.Time `json:"missing_months"`
	}
	get(t, ts.URL+"/api/v1/compliance", &result)

	// Clock pinned to 2026-04: February and April are uncovered.
	require.Len(t, result.MissingMonths, 2)
	assert.Equal(t, time.Month(2), result.MissingMonths[0].Month())
	assert.Equal(t, time.Month(4), result.MissingMonths[1].Month())
}
