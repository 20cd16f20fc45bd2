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
package data

import (
	"time"

	"github.com/google/uuid"
)

// AssembledPanelRow is one regression-ready security-month. Every field is
// defined: rows with any undefined required value are dropped by the
// assembler's completeness filter, so none of these are nullable.
type AssembledPanelRow struct {
	SecurityID int64        `db:"security_id" csv:"security_id"`
	Period     time.Time    `db:"period" csv:"period"`
	Size       SizeCategory `db:"size_category" csv:"size_category"`

	// Excess return observed one month after Period; the predictive target.
	FwdExcessReturn float64 `db:"fwd_excess_return" csv:"fwd_excess_return"`

	// Log of the market cap recorded at the linked firm's fiscal month,
	// forward-filled with the other accounting characteristics.
	LogMarketCap float64 `db:"log_market_cap" csv:"log_market_cap"`

	// Market cap at Period, in millions. Used as the weight for weighted
	// cross-sectional regressions.
	MarketCap float64 `db:"market_cap" csv:"market_cap"`

	// Log of book equity over market cap at the fiscal month.
	LogBookMarket float64 `db:"log_book_market" csv:"log_book_market"`

	OperatingProfitability float64 `db:"operating_profitability" csv:"operating_profitability"`
	Investment             float64 `db:"investment" csv:"investment"`
	ExcessReturn           float64 `db:"excess_return" csv:"excess_return"`
	Momentum               float64 `db:"momentum" csv:"momentum"`
	Volatility             float64 `db:"volatility" csv:"volatility"`
}

// BuildSummary describes one completed panel build for the builds metadata
// table and the run report printed at the end of a build.
type BuildSummary struct {
	ID         uuid.UUID `db:"id"`
	RangeStart time.Time `db:"range_start"`
	RangeEnd   time.Time `db:"range_end"`
	StartTime  time.Time `db:"start_time"`
	EndTime    time.Time `db:"end_time"`

	// Row counts per logical table name.
	TableRows map[string]int `db:"-"`
}
