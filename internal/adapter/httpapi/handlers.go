package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/allocator"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/collateral"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/compliance"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/costbasis"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/holdings"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// --- dataset ledgers ---

type planPayload struct {
	ID            uuid.UUID       `json:"id,omitempty"`
	Month         string          `json:"month"` // "2026-01"
	Bucket        string          `json:"bucket"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
	FXRate        decimal.Decimal `json:"fx_rate"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.PlanRepo.List(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]planPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, planPayload{
			ID:            e.ID,
			Month:         e.Month.Format(monthLayout),
			Bucket:        string(e.Bucket),
			PlannedAmount: e.PlannedAmount,
			FXRate:        e.FXRate,
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planPayload
	if !s.decode(w, r, &req) {
		return
	}

	month, err := time.Parse(monthLayout, req.Month)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "month must use YYYY-MM format")
		return
	}
	bucket, err := domain.ParseBucket(req.Bucket)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fx := req.FXRate
	if !fx.IsPositive() {
		fx = s.fallbackFX
	}

	entry := &domain.PlanEntry{
		ID:            uuid.New(),
		Month:         month,
		Bucket:        bucket,
		PlannedAmount: req.PlannedAmount,
		FXRate:        fx,
	}
	entry.Normalize()
	if err := entry.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.PlanRepo.Create(r.Context(), entry); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": entry.ID})
}

type allocationPayload struct {
	ID                 uuid.UUID         `json:"id,omitempty"`
	Bucket             string            `json:"bucket"`
	InstrumentCode     string            `json:"instrument_code"`
	WeightPercent      decimal.Decimal   `json:"weight_percent"`
	FairValue          decimal.Decimal   `json:"fair_value"`
	MarginTierPercents []decimal.Decimal `json:"margin_tier_percents,omitempty"`
	TierWeightPercents []decimal.Decimal `json:"tier_weight_percents,omitempty"`
}

func (s *Server) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.AllocationRepo.List(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]allocationPayload, 0, len(rows))
	for _, a := range rows {
		out = append(out, allocationPayload{
			ID:                 a.ID,
			Bucket:             string(a.Bucket),
			InstrumentCode:     a.InstrumentCode,
			WeightPercent:      a.WeightPercent,
			FairValue:          a.FairValue,
			MarginTierPercents: a.MarginTierPercents[:],
			TierWeightPercents: a.TierWeightPercents[:],
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req allocationPayload
	if !s.decode(w, r, &req) {
		return
	}

	bucket, err := domain.ParseBucket(req.Bucket)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.MarginTierPercents) > domain.NumMarginTiers || len(req.TierWeightPercents) > domain.NumMarginTiers {
		s.respondError(w, http.StatusBadRequest, "at most 5 margin tiers are supported")
		return
	}

	row := &domain.BucketAllocation{
		ID:             uuid.New(),
		Bucket:         bucket,
		InstrumentCode: req.InstrumentCode,
		WeightPercent:  req.WeightPercent,
		FairValue:      req.FairValue,
	}
	copy(row.MarginTierPercents[:], req.MarginTierPercents)
	copy(row.TierWeightPercents[:], req.TierWeightPercents)

	if err := row.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.AllocationRepo.Create(r.Context(), row); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": row.ID})
}

type transactionPayload struct {
	ID             uuid.UUID       `json:"id,omitempty"`
	Date           string          `json:"date"` // "2026-03-15"
	Action         string          `json:"action"`
	Bucket         string          `json:"bucket"`
	InstrumentCode string          `json:"instrument_code"`
	Quantity       decimal.Decimal `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Fee            decimal.Decimal `json:"fee"`
	Tax            decimal.Decimal `json:"tax"`
	Purpose        string          `json:"purpose,omitempty"`
	Note           string          `json:"note,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.TransactionRepo.List(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]transactionPayload, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionPayload{
			ID:             t.ID,
			Date:           t.Date.Format(dateLayout),
			Action:         string(t.Action),
			Bucket:         string(t.Bucket),
			InstrumentCode: t.InstrumentCode,
			Quantity:       t.Quantity,
			Price:          t.Price,
			Fee:            t.Fee,
			Tax:            t.Tax,
			Purpose:        t.Purpose,
			Note:           t.Note,
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPayload
	if !s.decode(w, r, &req) {
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "date must use YYYY-MM-DD format")
		return
	}
	bucket, err := domain.ParseBucket(req.Bucket)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx := &domain.Transaction{
		ID:             uuid.New(),
		Date:           date,
		Action:         domain.TradeAction(req.Action),
		Bucket:         bucket,
		InstrumentCode: req.InstrumentCode,
		Quantity:       req.Quantity,
		Price:          req.Price,
		Fee:            req.Fee,
		Tax:            req.Tax,
		Purpose:        req.Purpose,
		Note:           req.Note,
	}
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.TransactionRepo.Create(r.Context(), tx); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": tx.ID})
}

type optionPayload struct {
	ID            uuid.UUID       `json:"id,omitempty"`
	TradeDate     string          `json:"trade_date"`
	Underlying    string          `json:"underlying"`
	Strike        decimal.Decimal `json:"strike"`
	Expiry        string          `json:"expiry"`
	Right         string          `json:"right"`
	Direction     string          `json:"direction"`
	Contracts     int64           `json:"contracts"`
	Premium       decimal.Decimal `json:"premium"`
	Fee           decimal.Decimal `json:"fee"`
	Margin        decimal.Decimal `json:"margin"`
	FundingSource string          `json:"funding_source,omitempty"`
	StrategyNote  string          `json:"strategy_note,omitempty"`
}

func (s *Server) handleListOptions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.OptionRepo.List(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]optionPayload, 0, len(positions))
	for _, o := range positions {
		out = append(out, optionPayload{
			ID:            o.ID,
			TradeDate:     o.TradeDate.Format(dateLayout),
			Underlying:    o.Underlying,
			Strike:        o.Strike,
			Expiry:        o.Expiry.Format(dateLayout),
			Right:         string(o.Right),
			Direction:     string(o.Direction),
			Contracts:     o.Contracts,
			Premium:       o.Premium,
			Fee:           o.Fee,
			Margin:        o.Margin,
			FundingSource: o.FundingSource,
			StrategyNote:  o.StrategyNote,
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateOption(w http.ResponseWriter, r *http.Request) {
	var req optionPayload
	if !s.decode(w, r, &req) {
		return
	}

	tradeDate, err := time.Parse(dateLayout, req.TradeDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "trade_date must use YYYY-MM-DD format")
		return
	}
	expiry, err := time.Parse(dateLayout, req.Expiry)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "expiry must use YYYY-MM-DD format")
		return
	}

	pos := &domain.OptionPosition{
		ID:            uuid.New(),
		TradeDate:     tradeDate,
		Underlying:    req.Underlying,
		Strike:        req.Strike,
		Expiry:        expiry,
		Right:         domain.OptionRight(req.Right),
		Direction:     domain.OptionDirection(req.Direction),
		Contracts:     req.Contracts,
		Premium:       req.Premium,
		Fee:           req.Fee,
		Margin:        req.Margin,
		FundingSource: req.FundingSource,
		StrategyNote:  req.StrategyNote,
	}
	if err := pos.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.OptionRepo.Create(r.Context(), pos); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": pos.ID})
}

// --- derived views ---

func (s *Server) bucketParam(w http.ResponseWriter, raw string) (domain.Bucket, bool) {
	bucket, err := domain.ParseBucket(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return bucket, true
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	bucket, ok := s.bucketParam(w, r.URL.Query().Get("bucket"))
	if !ok {
		return
	}
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	held := holdings.Calculate(snap.Transactions, bucket, r.URL.Query().Get("instrument"))
	s.respondJSON(w, http.StatusOK, map[string]any{
		"bucket":       bucket,
		"holdings":     held,
		"total_shares": holdings.TotalShares(held),
	})
}

func (s *Server) handleCostBasis(w http.ResponseWriter, r *http.Request) {
	bucket, ok := s.bucketParam(w, r.URL.Query().Get("bucket"))
	if !ok {
		return
	}
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	instrument := r.URL.Query().Get("instrument")
	s.respondJSON(w, http.StatusOK, map[string]any{
		"bucket":      bucket,
		"instrument":  instrument,
		"actual_cost": costbasis.Calculate(snap.Transactions, bucket, instrument, s.svc.Policy),
	})
}

func (s *Server) handleCollateral(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		s.respondError(w, http.StatusBadRequest, "target query parameter is required")
		return
	}
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, positions := collateral.Calculate(snap.Options, target, s.now())
	s.respondJSON(w, http.StatusOK, map[string]any{
		"target":    target,
		"total":     total,
		"positions": positions,
	})
}

func (s *Server) handleMarketValue(w http.ResponseWriter, r *http.Request) {
	bucket, ok := s.bucketParam(w, r.URL.Query().Get("bucket"))
	if !ok {
		return
	}
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	held := holdings.Calculate(snap.Transactions, bucket, "")
	s.respondJSON(w, http.StatusOK, s.svc.Valuer.Value(r.Context(), held))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats := costbasis.Stats(snap.Transactions, s.svc.Policy)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"trades":            stats,
		"option_cash_total": domain.OptionCashTotal(snap.Options),
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	bucket, ok := s.bucketParam(w, chi.URLParam(r, "bucket"))
	if !ok {
		return
	}
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := domain.PlannedTotal(snap.Plans, bucket)
	dists, warnings := allocator.Distribute(total, domain.AllocationsFor(snap.Allocations, bucket))
	s.respondJSON(w, http.StatusOK, map[string]any{
		"bucket":        bucket,
		"planned_total": total,
		"distributions": dists,
		"warnings":      warnings,
	})
}

type ladderPayload struct {
	InstrumentCode string                 `json:"instrument_code"`
	PlannedAmount  decimal.Decimal        `json:"planned_amount"`
	Steps          []allocator.LadderStep `json:"steps"`
}

func (s *Server) handleLadder(w http.ResponseWriter, r *http.Request) {
	bucket, ok := s.bucketParam(w, chi.URLParam(r, "bucket"))
	if !ok {
		return
	}
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total := domain.PlannedTotal(snap.Plans, bucket)
	rows := domain.AllocationsFor(snap.Allocations, bucket)
	dists, warnings := allocator.Distribute(total, rows)

	planned := make(map[string]decimal.Decimal, len(dists))
	for _, d := range dists {
		planned[d.InstrumentCode] = d.PlannedAmount
	}

	ladders := make([]ladderPayload, 0, len(rows))
	for _, row := range rows {
		steps, stepWarnings := allocator.PriceLadder(row, planned[row.InstrumentCode])
		warnings = append(warnings, stepWarnings...)
		if len(steps) == 0 {
			continue
		}
		ladders = append(ladders, ladderPayload{
			InstrumentCode: row.InstrumentCode,
			PlannedAmount:  planned[row.InstrumentCode],
			Steps:          steps,
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"bucket":   bucket,
		"ladders":  ladders,
		"warnings": warnings,
	})
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result := compliance.Check(snap.Plans, s.policyStart, s.minMonthly, s.maxLotteryPercent, s.now())
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.ReconcileAll(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleBucketReconciliation(w http.ResponseWriter, r *http.Request) {
	bucket, ok := s.bucketParam(w, chi.URLParam(r, "bucket"))
	if !ok {
		return
	}
	summary, warnings, err := s.svc.Reconcile(r.Context(), bucket)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"summary":  summary,
		"warnings": warnings,
	})
}

// --- collaborators ---

func (s *Server) handleFX(w http.ResponseWriter, r *http.Request) {
	if s.fx != nil {
		if rate, err := s.fx.USDToTWD(r.Context()); err == nil {
			s.respondJSON(w, http.StatusOK, map[string]any{"usd_twd": rate, "fallback": false})
			return
		} else {
			s.logger.Warn().Err(err).Msg("fx lookup failed, using fallback rate")
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"usd_twd": s.fallbackFX, "fallback": true})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	if s.sentiment == nil {
		s.respondError(w, http.StatusNotFound, "sentiment provider not configured")
		return
	}
	idx, err := s.sentiment.Get(r.Context())
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "sentiment lookup failed: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, idx)
}

// --- CSV import/export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.csv.Save(snap); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"plans":        len(snap.Plans),
		"allocations":  len(snap.Allocations),
		"transactions": len(snap.Transactions),
		"options":      len(snap.Options),
	})
}

// handleImport appends every row of the CSV export to the live datasets.
// It does not deduplicate; importing into a non-empty store doubles rows.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.csv.Load()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	for i := range snap.Plans {
		if err := s.svc.PlanRepo.Create(ctx, &snap.Plans[i]); err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	for i := range snap.Allocations {
		if err := s.svc.AllocationRepo.Create(ctx, &snap.Allocations[i]); err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	for i := range snap.Transactions {
		if err := s.svc.TransactionRepo.Create(ctx, &snap.Transactions[i]); err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	for i := range snap.Options {
		if err := s.svc.OptionRepo.Create(ctx, &snap.Options[i]); err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"plans":        len(snap.Plans),
		"allocations":  len(snap.Allocations),
		"transactions": len(snap.Transactions),
		"options":      len(snap.Options),
	})
}
