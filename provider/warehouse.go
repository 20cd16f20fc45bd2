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
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/factor-lab/fmdata/data"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	// dailyBatchSize limits how many security ids a single daily-return query
	// carries; the warehouse rejects unbounded IN lists.
	dailyBatchSize = 500

	// dailyWorkers bounds concurrent daily-return queries against the
	// warehouse connection pool.
	dailyWorkers = 4
)

// Warehouse reads raw research data from the remote warehouse over Postgres.
// It implements FundamentalsSource and SecuritySource.
type Warehouse struct {
	URL  string
	pool *pgxpool.Pool
}

// Connect establishes the warehouse connection pool.
func (w *Warehouse) Connect(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, w.URL)
	if err != nil {
		return fmt.Errorf("connect to warehouse: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping warehouse: %w", err)
	}

	w.pool = pool
	return nil
}

// Close releases the warehouse connection pool.
func (w *Warehouse) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

// Fundamentals retrieves annual statement records for US industrial firms:
// standardized, domestic-population, consolidated and USD-denominated rows
// only.
func (w *Warehouse) Fundamentals(ctx context.Context, dr data.DateRange) ([]data.FundamentalRecord, error) {
	var records []data.FundamentalRecord
	err := pgxscan.Select(ctx, w.pool, &records, `
		SELECT gvkey AS entity_id,
		       datadate AS fiscal_date,
		       seq AS stockholders_equity,
		       ceq AS common_equity,
		       pstk AS preferred_stock,
		       pstkrv AS preferred_redemption,
		       pstkl AS preferred_liquidating,
		       txditc AS deferred_taxes_itc,
		       txdb AS deferred_taxes,
		       itcb AS investment_tax_credit,
		       at AS total_assets,
		       lt AS total_liabilities,
		       sale AS sales,
		       cogs AS cogs,
		       xsga AS sga,
		       xint AS interest_expense
		FROM comp.funda
		WHERE indfmt = 'INDL'
		  AND datafmt = 'STD'
		  AND popsrc = 'D'
		  AND consol = 'C'
		  AND curcd = 'USD'
		  AND datadate BETWEEN $1 AND $2`,
		dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("query fundamentals: %w", err)
	}

	log.Info().Int("NumRecords", len(records)).Msg("fetched fundamental records")
	return records, nil
}

// MonthlySecurities retrieves security-month observations for actively traded
// US common equity on the NYSE, AMEX and NASDAQ exchanges. Eligibility
// filtering happens here so downstream stages never see ineligible listings.
func (w *Warehouse) MonthlySecurities(ctx context.Context, dr data.DateRange) ([]data.SecurityMonthRecord, error) {
	var records []data.SecurityMonthRecord
	err := pgxscan.Select(ctx, w.pool, &records, `
		SELECT msf.permno AS security_id,
		       date_trunc('month', msf.mthcaldt)::date AS period,
		       msf.mthret AS return,
		       msf.shrout AS shares_outstanding,
		       msf.mthprc AS price,
		       ssih.primaryexch AS primary_exchange_code,
		       COALESCE(ssih.siccd, 0) AS industry_code
		FROM crsp.msf_v2 AS msf
		JOIN crsp.stksecurityinfohist AS ssih
		  ON msf.permno = ssih.permno
		 AND msf.mthcaldt BETWEEN ssih.secinfostartdt AND ssih.secinfoenddt
		WHERE msf.mthcaldt BETWEEN $1 AND $2
		  AND ssih.sharetype = 'NS'
		  AND ssih.securitytype = 'EQTY'
		  AND ssih.securitysubtype = 'COM'
		  AND ssih.usincflg = 'Y'
		  AND ssih.issuertype IN ('ACOR', 'CORP')
		  AND ssih.primaryexch IN ('N', 'A', 'Q')
		  AND ssih.conditionaltype = 'RW'
		  AND ssih.tradingstatusflg = 'A'`,
		dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("query monthly securities: %w", err)
	}

	log.Info().Int("NumRecords", len(records)).Msg("fetched security-month records")
	return records, nil
}

// DailySecurities retrieves daily return observations for every security that
// appears in the monthly file over the range. Securities are fetched in
// batches by a small worker pool; results are re-sorted so output order never
// depends on query completion order.
func (w *Warehouse) DailySecurities(ctx context.Context, dr data.DateRange) ([]data.DailySecurityRecord, error) {
	ids, err := w.securityIDs(ctx, dr)
	if err != nil {
		return nil, err
	}

	batches := make(chan []int64)
	go func() {
		defer close(batches)
		for lo := 0; lo < len(ids); lo += dailyBatchSize {
			hi := lo + dailyBatchSize
			if hi > len(ids) {
				hi = len(ids)
			}
			batches <- ids[lo:hi]
		}
	}()

	var (
		mu       sync.Mutex
		records  []data.DailySecurityRecord
		firstErr error
		wg       sync.WaitGroup
	)

	for worker := 0; worker < dailyWorkers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				var rows []data.DailySecurityRecord
				err := pgxscan.Select(ctx, w.pool, &rows, `
					SELECT permno AS security_id,
					       dlycaldt AS date,
					       dlyret AS return
					FROM crsp.dsf_v2
					WHERE dlycaldt BETWEEN $1 AND $2
					  AND dlyret IS NOT NULL
					  AND permno = ANY($3)`,
					dr.Start, dr.End, batch)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("query daily securities: %w", err)
					}
				} else {
					records = append(records, rows...)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].SecurityID != records[j].SecurityID {
			return records[i].SecurityID < records[j].SecurityID
		}
		return records[i].Date.Before(records[j].Date)
	})

	log.Info().Int("NumRecords", len(records)).Int("NumSecurities", len(ids)).
		Msg("fetched daily security records")
	return records, nil
}

func (w *Warehouse) securityIDs(ctx context.Context, dr data.DateRange) ([]int64, error) {
	var ids []int64
	err := pgxscan.Select(ctx, w.pool, &ids, `
		SELECT DISTINCT permno
		FROM crsp.msf_v2
		WHERE mthcaldt BETWEEN $1 AND $2
		ORDER BY permno`,
		dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("query security ids: %w", err)
	}
	return ids, nil
}

// Links retrieves the security-to-entity link table: primary research and
// linked research links of the primary and co-primary issues only.
func (w *Warehouse) Links(ctx context.Context) ([]data.LinkRecord, error) {
	var links []data.LinkRecord
	err := pgxscan.Select(ctx, w.pool, &links, `
		SELECT lpermno AS security_id,
		       gvkey AS entity_id,
		       linkdt AS valid_from,
		       linkenddt AS valid_to
		FROM crsp.ccmxpf_linktable
		WHERE linktype IN ('LU', 'LC')
		  AND linkprim IN ('P', 'C')
		  AND lpermno IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}

	log.Info().Int("NumLinks", len(links)).Msg("fetched security links")
	return links, nil
}
