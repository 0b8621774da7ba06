// Package csvstore imports and exports the four datasets as flat CSV
// files. It is an exchange format, not the primary store: Load produces a
// snapshot, Save writes one out.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/domain"
)

const (
	PlanFile        = "investment_plan.csv"
	AllocationFile  = "bucket_allocations.csv"
	TransactionFile = "stock_transactions.csv"
	OptionFile      = "option_positions.csv"

	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

var (
	planHeader        = []string{"month", "bucket", "planned_amount", "fx_rate"}
	allocationHeader  = []string{"bucket", "instrument_code", "weight_percent", "fair_value", "margin_tier1", "margin_tier2", "margin_tier3", "margin_tier4", "margin_tier5", "tier_weight1", "tier_weight2", "tier_weight3", "tier_weight4", "tier_weight5"}
	transactionHeader = []string{"date", "action", "bucket", "instrument_code", "quantity", "price", "fee", "tax", "purpose", "note"}
	optionHeader      = []string{"trade_date", "underlying", "strike", "expiry", "right", "direction", "contracts", "premium", "fee", "margin", "funding_source", "strategy_note"}
)

// Store reads and writes dataset CSVs under a directory
type Store struct {
	dir string
}

// NewStore creates a CSV store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads all four dataset files into a snapshot. A missing file yields
// an empty dataset, never an error.
func (s *Store) Load() (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}

	if err := s.readFile(PlanFile, len(planHeader), func(rec []string) error {
		entry, err := parsePlan(rec)
		if err != nil {
			return err
		}
		snap.Plans = append(snap.Plans, *entry)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.readFile(AllocationFile, len(allocationHeader), func(rec []string) error {
		row, err := parseAllocation(rec)
		if err != nil {
			return err
		}
		snap.Allocations = append(snap.Allocations, *row)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.readFile(TransactionFile, len(transactionHeader), func(rec []string) error {
		tx, err := parseTransaction(rec)
		if err != nil {
			return err
		}
		snap.Transactions = append(snap.Transactions, *tx)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.readFile(OptionFile, len(optionHeader), func(rec []string) error {
		pos, err := parseOption(rec)
		if err != nil {
			return err
		}
		snap.Options = append(snap.Options, *pos)
		return nil
	}); err != nil {
		return nil, err
	}

	return snap, nil
}

// Save writes the snapshot out as the four dataset files, overwriting any
// existing exports
func (s *Store) Save(snap *domain.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	planRows := make([][]string, 0, len(snap.Plans))
	for _, p := range snap.Plans {
		planRows = append(planRows, []string{
			p.Month.Format(monthLayout),
			string(p.Bucket),
			p.PlannedAmount.String(),
			p.FXRate.String(),
		})
	}
	if err := s.writeFile(PlanFile, planHeader, planRows); err != nil {
		return err
	}

	allocRows := make([][]string, 0, len(snap.Allocations))
	for _, a := range snap.Allocations {
		row := []string{string(a.Bucket), a.InstrumentCode, a.WeightPercent.String(), a.FairValue.String()}
		for i := 0; i < domain.NumMarginTiers; i++ {
			row = append(row, a.MarginTierPercents[i].String())
		}
		for i := 0; i < domain.NumMarginTiers; i++ {
			row = append(row, a.TierWeightPercents[i].String())
		}
		allocRows = append(allocRows, row)
	}
	if err := s.writeFile(AllocationFile, allocationHeader, allocRows); err != nil {
		return err
	}

	txRows := make([][]string, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		txRows = append(txRows, []string{
			t.Date.Format(dateLayout),
			string(t.Action),
			string(t.Bucket),
			t.InstrumentCode,
			t.Quantity.String(),
			t.Price.String(),
			t.Fee.String(),
			t.Tax.String(),
			t.Purpose,
			t.Note,
		})
	}
	if err := s.writeFile(TransactionFile, transactionHeader, txRows); err != nil {
		return err
	}

	optRows := make([][]string, 0, len(snap.Options))
	for _, o := range snap.Options {
		optRows = append(optRows, []string{
			o.TradeDate.Format(dateLayout),
			o.Underlying,
			o.Strike.String(),
			o.Expiry.Format(dateLayout),
			string(o.Right),
			string(o.Direction),
			strconv.FormatInt(o.Contracts, 10),
			o.Premium.String(),
			o.Fee.String(),
			o.Margin.String(),
			o.FundingSource,
			o.StrategyNote,
		})
	}
	return s.writeFile(OptionFile, optionHeader, optRows)
}

func (s *Store) readFile(name string, fields int, each func([]string) error) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if err := each(rec); err != nil {
			return fmt.Errorf("%s row %d: %w", name, i+1, err)
		}
	}
	return nil
}

func (s *Store) writeFile(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}

func parsePlan(rec []string) (*domain.PlanEntry, error) {
	month, err := parseMonth(rec[0])
	if err != nil {
		return nil, err
	}
	bucket, err := domain.ParseBucket(rec[1])
	if err != nil {
		return nil, err
	}
	planned, err := parseDecimal(rec[2], "planned_amount")
	if err != nil {
		return nil, err
	}
	fx, err := parseDecimal(rec[3], "fx_rate")
	if err != nil {
		return nil, err
	}

	entry := &domain.PlanEntry{
		ID:            uuid.New(),
		Month:         month,
		Bucket:        bucket,
		PlannedAmount: planned,
		FXRate:        fx,
	}
	return entry, entry.Validate()
}

func parseAllocation(rec []string) (*domain.BucketAllocation, error) {
	bucket, err := domain.ParseBucket(rec[0])
	if err != nil {
		return nil, err
	}
	weight, err := parseDecimal(rec[2], "weight_percent")
	if err != nil {
		return nil, err
	}
	fair, err := parseDecimal(rec[3], "fair_value")
	if err != nil {
		return nil, err
	}

	row := &domain.BucketAllocation{
		ID:             uuid.New(),
		Bucket:         bucket,
		InstrumentCode: rec[1],
		WeightPercent:  weight,
		FairValue:      fair,
	}
	for i := 0; i < domain.NumMarginTiers; i++ {
		if row.MarginTierPercents[i], err = parseDecimal(rec[4+i], fmt.Sprintf("margin_tier%d", i+1)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < domain.NumMarginTiers; i++ {
		if row.TierWeightPercents[i], err = parseDecimal(rec[9+i], fmt.Sprintf("tier_weight%d", i+1)); err != nil {
			return nil, err
		}
	}
	return row, row.Validate()
}

func parseTransaction(rec []string) (*domain.Transaction, error) {
	date, err := time.Parse(dateLayout, rec[0])
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", rec[0], err)
	}
	bucket, err := domain.ParseBucket(rec[2])
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		ID:             uuid.New(),
		Date:           date,
		Action:         domain.TradeAction(rec[1]),
		Bucket:         bucket,
		InstrumentCode: rec[3],
		Purpose:        rec[8],
		Note:           rec[9],
	}
	if tx.Quantity, err = parseDecimal(rec[4], "quantity"); err != nil {
		return nil, err
	}
	if tx.Price, err = parseDecimal(rec[5], "price"); err != nil {
		return nil, err
	}
	if tx.Fee, err = parseDecimal(rec[6], "fee"); err != nil {
		return nil, err
	}
	if tx.Tax, err = parseDecimal(rec[7], "tax"); err != nil {
		return nil, err
	}

	tx.Normalize()
	return tx, tx.Validate()
}

func parseOption(rec []string) (*domain.OptionPosition, error) {
	tradeDate, err := time.Parse(dateLayout, rec[0])
	if err != nil {
		return nil, fmt.Errorf("invalid trade_date %q: %w", rec[0], err)
	}
	expiry, err := time.Parse(dateLayout, rec[3])
	if err != nil {
		return nil, fmt.Errorf("invalid expiry %q: %w", rec[3], err)
	}
	contracts, err := strconv.ParseInt(rec[6], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid contracts %q: %w", rec[6], err)
	}

	pos := &domain.OptionPosition{
		ID:            uuid.New(),
		TradeDate:     tradeDate,
		Underlying:    rec[1],
		Expiry:        expiry,
		Right:         domain.OptionRight(rec[4]),
		Direction:     domain.OptionDirection(rec[5]),
		Contracts:     contracts,
		FundingSource: rec[10],
		StrategyNote:  rec[11],
	}
	if pos.Strike, err = parseDecimal(rec[2], "strike"); err != nil {
		return nil, err
	}
	if pos.Premium, err = parseDecimal(rec[7], "premium"); err != nil {
		return nil, err
	}
	if pos.Fee, err = parseDecimal(rec[8], "fee"); err != nil {
		return nil, err
	}
	if pos.Margin, err = parseDecimal(rec[9], "margin"); err != nil {
		return nil, err
	}
	return pos, pos.Validate()
}

// parseMonth accepts either "2006-01" or a full date
func parseMonth(s string) (time.Time, error) {
	if t, err := time.Parse(monthLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q", s)
	}
	return domain.MonthOf(t), nil
}

// parseDecimal treats an empty field as zero (unset)
func parseDecimal(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}
