package providers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/domain"
	"github.com/sawpanic/equityrecon/internal/metrics"
)

// StatementsAdapter derives metrics from audited fundamental statements in
// Postgres. Its ratios carry the audited override tag, which outranks the
// adapter's own baseline tier in the merge.
type StatementsAdapter struct {
	guard *Guard
	db    *sqlx.DB
}

// statementRow mirrors the fundamental_statements table.
type statementRow struct {
	Symbol             string          `db:"symbol"`
	Currency           string          `db:"currency"`
	FiscalYearEnd      time.Time       `db:"fiscal_year_end"`
	Revenue            sql.NullFloat64 `db:"revenue"`
	CostOfRevenue      sql.NullFloat64 `db:"cost_of_revenue"`
	OperatingIncome    sql.NullFloat64 `db:"operating_income"`
	NetIncome          sql.NullFloat64 `db:"net_income"`
	TotalAssets        sql.NullFloat64 `db:"total_assets"`
	TotalEquity        sql.NullFloat64 `db:"total_equity"`
	TotalDebt          sql.NullFloat64 `db:"total_debt"`
	CurrentAssets      sql.NullFloat64 `db:"current_assets"`
	CurrentLiabilities sql.NullFloat64 `db:"current_liabilities"`
	SharesOutstanding  sql.NullFloat64 `db:"shares_outstanding"`
	PriorRevenue       sql.NullFloat64 `db:"prior_revenue"`
}

const statementQuery = `
SELECT symbol, currency, fiscal_year_end, revenue, cost_of_revenue,
       operating_income, net_income, total_assets, total_equity, total_debt,
       current_assets, current_liabilities, shares_outstanding, prior_revenue
FROM fundamental_statements
WHERE symbol = $1
ORDER BY fiscal_year_end DESC
LIMIT 1`

// NewStatementsAdapter connects using the DSN env var. A missing DSN leaves
// the adapter unavailable. The pool opens lazily, so credential problems
// surface on the first query and trip the guard there.
func NewStatementsAdapter(cfg config.ProviderConfig, m *metrics.Collector) *StatementsAdapter {
	a := &StatementsAdapter{guard: NewGuard(string(domain.SourceStatements), cfg, m)}
	dsn := os.Getenv(cfg.DSNEnv)
	if dsn == "" {
		return a
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		a.guard.DisablePermanently(fmt.Sprintf("bad DSN: %v", err))
		return a
	}
	a.db = db
	return a
}

// NewStatementsAdapterWithDB injects an existing connection (tests).
func NewStatementsAdapterWithDB(db *sqlx.DB) *StatementsAdapter {
	return &StatementsAdapter{
		guard: NewGuard(string(domain.SourceStatements), config.ProviderConfig{}, nil),
		db:    db,
	}
}

func (a *StatementsAdapter) Name() domain.SourceTag { return domain.SourceStatements }

func (a *StatementsAdapter) IsAvailable() bool {
	return a.db != nil && a.guard.Available()
}

// GetMetrics loads the latest statement and derives ratios from it. An
// unknown symbol is absence; a connection-level failure is transient noise.
// Rejected credentials disable the adapter for the process lifetime.
func (a *StatementsAdapter) GetMetrics(ctx context.Context, t domain.Ticker) (*domain.SourceSnapshot, error) {
	if a.db == nil {
		return nil, nil
	}
	if disabled, _ := a.guard.Disabled(); disabled {
		return nil, nil
	}
	var row statementRow
	err := a.db.GetContext(ctx, &row, statementQuery, t.Symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if isAuthError(err) {
			a.guard.DisablePermanently(fmt.Sprintf("database auth rejected: %v", err))
			return nil, fmt.Errorf("statements auth: %w", ErrConfiguration)
		}
		log.Warn().Str("symbol", t.Symbol).Err(err).Msg("Statement query failed")
		return nil, nil
	}

	snap := domain.NewSnapshot(domain.SourceStatements, t.Symbol)
	if row.Currency != "" {
		snap.Set(domain.FieldCurrency, row.Currency)
	}
	snap.Set(domain.FieldFiscalEnd, row.FiscalYearEnd.UTC())
	if row.SharesOutstanding.Valid {
		snap.Set(domain.FieldShares, row.SharesOutstanding.Float64)
	}

	// Ratios computed straight off the audited statements get the
	// audited override tag.
	audited := func(f domain.FieldName, v float64) {
		snap.Set(f, v)
		snap.SetOverride(f, domain.SourceAudited)
	}

	if row.Revenue.Valid && row.Revenue.Float64 != 0 {
		if row.CostOfRevenue.Valid {
			audited(domain.FieldGrossMargin, (row.Revenue.Float64-row.CostOfRevenue.Float64)/row.Revenue.Float64)
		}
		if row.OperatingIncome.Valid {
			audited(domain.FieldOpMargin, row.OperatingIncome.Float64/row.Revenue.Float64)
		}
		if row.NetIncome.Valid {
			audited(domain.FieldNetMargin, row.NetIncome.Float64/row.Revenue.Float64)
		}
		if row.PriorRevenue.Valid && row.PriorRevenue.Float64 != 0 {
			audited(domain.FieldRevGrowth, row.Revenue.Float64/row.PriorRevenue.Float64-1)
		}
	}
	if row.NetIncome.Valid {
		if row.TotalEquity.Valid && row.TotalEquity.Float64 != 0 {
			audited(domain.FieldROE, row.NetIncome.Float64/row.TotalEquity.Float64)
		}
		if row.TotalAssets.Valid && row.TotalAssets.Float64 != 0 {
			audited(domain.FieldROA, row.NetIncome.Float64/row.TotalAssets.Float64)
		}
	}
	if row.TotalDebt.Valid && row.TotalEquity.Valid && row.TotalEquity.Float64 != 0 {
		audited(domain.FieldDebtEquity, row.TotalDebt.Float64/row.TotalEquity.Float64)
	}
	if row.CurrentAssets.Valid && row.CurrentLiabilities.Valid && row.CurrentLiabilities.Float64 != 0 {
		audited(domain.FieldCurrentRat, row.CurrentAssets.Float64/row.CurrentLiabilities.Float64)
	}

	if snap.IsEmpty() {
		return nil, nil
	}
	return snap, nil
}

// isAuthError matches postgres class 28 (invalid authorization, including
// 28P01 invalid password). Nothing a retry can fix.
func isAuthError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code.Class() == "28"
}

// GetPriceHistory is unsupported: statements carry no market prices.
func (a *StatementsAdapter) GetPriceHistory(ctx context.Context, t domain.Ticker, period string) ([]domain.PricePoint, error) {
	return nil, nil
}
