// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package library persists built datasets to the local research database.
// Each dataset lives in its own table, one table per build date range, so
// rebuilding a range replaces exactly that range and different ranges never
// interfere. Saves are transactional: the table is created if needed, cleared
// and bulk-loaded in one transaction.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/factor-lab/fmdata/data"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// ErrNoData indicates that a dataset is empty: either a load found nothing
// stored for the requested date range or a save was attempted with no rows.
var ErrNoData = errors.New("no data")

// Library is a handle to the research database.
type Library struct {
	DBUrl string

	Pool *pgxpool.Pool
}

// Connect opens the database pool configured for the library.
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	myLibrary.Pool.Close()
}

// Dataset table base names. The stored table name carries the build range as
// a suffix, e.g. fundamentals_1963_01_01_2023_12_31.
const (
	FundamentalsTable    = "fundamentals"
	SecurityPanelTable   = "security_panel"
	FactorsFF3Table      = "factors_ff3_monthly"
	FactorsFF5Table      = "factors_ff5_monthly"
	PriceIndexTable      = "price_index"
	QFactorsTable        = "q_factors"
	MacroPredictorsTable = "macro_predictors"
	AssembledPanelTable  = "assembled_panel"
	VolFactorTable       = "vol_factor"
)

// TableName returns the stored table name of a dataset for a build range.
func TableName(base string, dr data.DateRange) string {
	return fmt.Sprintf("%s_%s", base, dr.TableSuffix())
}

// replaceTable swaps the full contents of a per-range table inside one
// transaction. An empty dataset fails with ErrNoData rather than silently
// writing an empty table; it means an upstream source produced nothing.
func (myLibrary *Library) replaceTable(ctx context.Context, table, ddl string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: refusing to write empty table %s", ErrNoData, table)
	}

	tx, err := myLibrary.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error().Err(err).Str("Table", table).Msg("rollback failed")
		}
	}()

	if _, err := tx.Exec(ctx, fmt.Sprintf(ddl, table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("clear table %s: %w", table, err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy into table %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit table %s: %w", table, err)
	}

	log.Info().Str("Table", table).Int("NumRows", len(rows)).Msg("saved table")
	return nil
}

// SaveFundamentals stores derived firm-year characteristics.
func (myLibrary *Library) SaveFundamentals(ctx context.Context, dr data.DateRange, characteristics []data.FirmYearCharacteristic) error {
	rows := make([][]any, 0, len(characteristics))
	for _, c := range characteristics {
		rows = append(rows, []any{c.EntityID, c.FiscalDate, c.Year, c.BookEquity,
			c.OperatingProfitability, c.Investment, c.TotalAssets})
	}

	return myLibrary.replaceTable(ctx, TableName(FundamentalsTable, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			entity_id TEXT NOT NULL,
			fiscal_date DATE NOT NULL,
			year INT NOT NULL,
			book_equity DOUBLE PRECISION,
			operating_profitability DOUBLE PRECISION,
			investment DOUBLE PRECISION,
			total_assets DOUBLE PRECISION,
			PRIMARY KEY (entity_id, year)
		)`,
		[]string{"entity_id", "fiscal_date", "year", "book_equity",
			"operating_profitability", "investment", "total_assets"}, rows)
}

// SaveSecurityPanel stores the cleaned monthly security panel.
func (myLibrary *Library) SaveSecurityPanel(ctx context.Context, dr data.DateRange, panel []data.SecurityMonthPanel) error {
	rows := make([][]any, 0, len(panel))
	for _, p := range panel {
		var size *string
		if p.Size != nil {
			s := string(*p.Size)
			size = &s
		}
		rows = append(rows, []any{p.SecurityID, p.EntityID, string(p.Exchange), string(p.Industry),
			p.Period, size, p.MarketCap, p.ExcessReturn, p.Momentum, p.Volatility})
	}

	return myLibrary.replaceTable(ctx, TableName(SecurityPanelTable, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			security_id BIGINT NOT NULL,
			entity_id TEXT,
			exchange TEXT NOT NULL,
			industry TEXT NOT NULL,
			period DATE NOT NULL,
			size_category TEXT,
			market_cap DOUBLE PRECISION NOT NULL,
			excess_return DOUBLE PRECISION NOT NULL,
			momentum DOUBLE PRECISION,
			volatility DOUBLE PRECISION,
			PRIMARY KEY (security_id, period)
		)`,
		[]string{"security_id", "entity_id", "exchange", "industry", "period",
			"size_category", "market_cap", "excess_return", "momentum", "volatility"}, rows)
}

// SaveFactors stores a monthly factor series under the table matching its
// version (3 or 5).
func (myLibrary *Library) SaveFactors(ctx context.Context, dr data.DateRange, version int, observations []data.FactorObservation) error {
	table := FactorsFF3Table
	if version == 5 {
		table = FactorsFF5Table
	}

	rows := make([][]any, 0, len(observations))
	for _, o := range observations {
		rows = append(rows, []any{o.Period, o.MktExcessReturn, o.SMB, o.HML, o.RF, o.RMW, o.CMA})
	}

	return myLibrary.replaceTable(ctx, TableName(table, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			period DATE PRIMARY KEY,
			market_excess_return DOUBLE PRECISION NOT NULL,
			smb DOUBLE PRECISION NOT NULL,
			hml DOUBLE PRECISION NOT NULL,
			rf DOUBLE PRECISION NOT NULL,
			rmw DOUBLE PRECISION,
			cma DOUBLE PRECISION
		)`,
		[]string{"period", "market_excess_return", "smb", "hml", "rf", "rmw", "cma"}, rows)
}

// SavePriceIndex stores a monthly price-level series.
func (myLibrary *Library) SavePriceIndex(ctx context.Context, dr data.DateRange, observations []data.PriceIndexObservation) error {
	rows := make([][]any, 0, len(observations))
	for _, o := range observations {
		rows = append(rows, []any{o.Period, o.Value})
	}

	return myLibrary.replaceTable(ctx, TableName(PriceIndexTable, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			period DATE PRIMARY KEY,
			value DOUBLE PRECISION NOT NULL
		)`,
		[]string{"period", "value"}, rows)
}

// SaveQFactors stores the monthly q-factor series.
func (myLibrary *Library) SaveQFactors(ctx context.Context, dr data.DateRange, observations []data.QFactorObservation) error {
	rows := make([][]any, 0, len(observations))
	for _, o := range observations {
		rows = append(rows, []any{o.Period, o.ME, o.IA, o.ROE, o.EG})
	}

	return myLibrary.replaceTable(ctx, TableName(QFactorsTable, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			period DATE PRIMARY KEY,
			me DOUBLE PRECISION NOT NULL,
			ia DOUBLE PRECISION NOT NULL,
			roe DOUBLE PRECISION NOT NULL,
			eg DOUBLE PRECISION NOT NULL
		)`,
		[]string{"period", "me", "ia", "roe", "eg"}, rows)
}

// SaveMacroPredictors stores the derived macro predictor series.
func (myLibrary *Library) SaveMacroPredictors(ctx context.Context, dr data.DateRange, records []data.MacroPredictorRecord) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.Period, r.DP, r.DY, r.EP, r.DE, r.SVAR, r.BM,
			r.NTIS, r.TBL, r.LTY, r.LTR, r.TMS, r.DFY, r.INFL})
	}

	return myLibrary.replaceTable(ctx, TableName(MacroPredictorsTable, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			period DATE PRIMARY KEY,
			dp DOUBLE PRECISION NOT NULL,
			dy DOUBLE PRECISION NOT NULL,
			ep DOUBLE PRECISION NOT NULL,
			de DOUBLE PRECISION NOT NULL,
			svar DOUBLE PRECISION NOT NULL,
			bm DOUBLE PRECISION NOT NULL,
			ntis DOUBLE PRECISION NOT NULL,
			tbl DOUBLE PRECISION NOT NULL,
			lty DOUBLE PRECISION NOT NULL,
			ltr DOUBLE PRECISION NOT NULL,
			tms DOUBLE PRECISION NOT NULL,
			dfy DOUBLE PRECISION NOT NULL,
			infl DOUBLE PRECISION NOT NULL
		)`,
		[]string{"period", "dp", "dy", "ep", "de", "svar", "bm", "ntis", "tbl",
			"lty", "ltr", "tms", "dfy", "infl"}, rows)
}

// SaveAssembledPanel stores the regression-ready panel.
func (myLibrary *Library) SaveAssembledPanel(ctx context.Context, dr data.DateRange, panel []data.AssembledPanelRow) error {
	rows := make([][]any, 0, len(panel))
	for _, p := range panel {
		rows = append(rows, []any{p.SecurityID, p.Period, string(p.Size), p.FwdExcessReturn,
			p.LogMarketCap, p.MarketCap, p.LogBookMarket, p.OperatingProfitability,
			p.Investment, p.ExcessReturn, p.Momentum, p.Volatility})
	}

	return myLibrary.replaceTable(ctx, TableName(AssembledPanelTable, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			security_id BIGINT NOT NULL,
			period DATE NOT NULL,
			size_category TEXT NOT NULL,
			fwd_excess_return DOUBLE PRECISION NOT NULL,
			log_market_cap DOUBLE PRECISION NOT NULL,
			market_cap DOUBLE PRECISION NOT NULL,
			log_book_market DOUBLE PRECISION NOT NULL,
			operating_profitability DOUBLE PRECISION NOT NULL,
			investment DOUBLE PRECISION NOT NULL,
			excess_return DOUBLE PRECISION NOT NULL,
			momentum DOUBLE PRECISION NOT NULL,
			volatility DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (security_id, period)
		)`,
		[]string{"security_id", "period", "size_category", "fwd_excess_return",
			"log_market_cap", "market_cap", "log_book_market", "operating_profitability",
			"investment", "excess_return", "momentum", "volatility"}, rows)
}

// SaveVolFactor stores the constructed volatility factor.
func (myLibrary *Library) SaveVolFactor(ctx context.Context, dr data.DateRange, observations []data.VolFactorObservation) error {
	rows := make([][]any, 0, len(observations))
	for _, o := range observations {
		rows = append(rows, []any{o.Period, o.Vol})
	}

	return myLibrary.replaceTable(ctx, TableName(VolFactorTable, dr), `
		CREATE TABLE IF NOT EXISTS %s (
			period DATE PRIMARY KEY,
			vol DOUBLE PRECISION NOT NULL
		)`,
		[]string{"period", "vol"}, rows)
}

// SaveBuildSummary appends one row to the builds metadata table.
func (myLibrary *Library) SaveBuildSummary(ctx context.Context, summary *data.BuildSummary) error {
	_, err := myLibrary.Pool.Exec(ctx, `
		INSERT INTO builds (id, range_start, range_end, start_time, end_time, table_rows)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		summary.ID, summary.RangeStart, summary.RangeEnd, summary.StartTime,
		summary.EndTime, summary.TableRows)
	if err != nil {
		return fmt.Errorf("save build summary: %w", err)
	}
	return nil
}

// Builds lists stored build summaries, most recent first.
func (myLibrary *Library) Builds(ctx context.Context) ([]*data.BuildSummary, error) {
	var builds []*data.BuildSummary
	err := pgxscan.Select(ctx, myLibrary.Pool, &builds, `
		SELECT id, range_start, range_end, start_time, end_time
		FROM builds
		ORDER BY end_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	return builds, nil
}

// LoadAssembledPanel reads a stored regression-ready panel.
func (myLibrary *Library) LoadAssembledPanel(ctx context.Context, dr data.DateRange) ([]data.AssembledPanelRow, error) {
	var panel []data.AssembledPanelRow
	err := pgxscan.Select(ctx, myLibrary.Pool, &panel, fmt.Sprintf(`
		SELECT security_id, period, size_category, fwd_excess_return, log_market_cap,
		       market_cap, log_book_market, operating_profitability, investment,
		       excess_return, momentum, volatility
		FROM %s
		ORDER BY security_id, period`, TableName(AssembledPanelTable, dr)))
	if err != nil {
		return nil, wrapMissingTable(err, dr)
	}
	return panel, nil
}

// LoadFundamentals reads stored firm-year characteristics.
func (myLibrary *Library) LoadFundamentals(ctx context.Context, dr data.DateRange) ([]data.FirmYearCharacteristic, error) {
	var characteristics []data.FirmYearCharacteristic
	err := pgxscan.Select(ctx, myLibrary.Pool, &characteristics, fmt.Sprintf(`
		SELECT entity_id, fiscal_date, year, book_equity, operating_profitability,
		       investment, total_assets
		FROM %s
		ORDER BY entity_id, year`, TableName(FundamentalsTable, dr)))
	if err != nil {
		return nil, wrapMissingTable(err, dr)
	}
	return characteristics, nil
}

// LoadSecurityPanel reads the stored monthly security panel.
func (myLibrary *Library) LoadSecurityPanel(ctx context.Context, dr data.DateRange) ([]data.SecurityMonthPanel, error) {
	var panel []data.SecurityMonthPanel
	err := pgxscan.Select(ctx, myLibrary.Pool, &panel, fmt.Sprintf(`
		SELECT security_id, entity_id, exchange, industry, period, size_category,
		       market_cap, excess_return, momentum, volatility
		FROM %s
		ORDER BY security_id, period`, TableName(SecurityPanelTable, dr)))
	if err != nil {
		return nil, wrapMissingTable(err, dr)
	}
	return panel, nil
}

// wrapMissingTable converts an undefined-table error into ErrNoData so
// callers can distinguish "never built" from real database failures.
func wrapMissingTable(err error, dr data.DateRange) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %s to %s", ErrNoData,
			dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
	}
	return err
}
