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

import "time"

// SecurityMonthRecord is a raw security-month row from the market data
// warehouse. The source restricts rows to active, eligible US common-equity
// listings; no share-type filtering happens downstream.
type SecurityMonthRecord struct {
	// [Entity] Permanent security identifier. Stable across ticker changes.
	SecurityID int64 `db:"security_id"`

	// [Entity] Month of the observation, truncated to the first of the month.
	Period time.Time `db:"period"`

	// Total return for the month, including distributions. NULL when the
	// security did not trade for the full month.
	Return *float64 `db:"return"`

	// Shares outstanding in thousands, as reported by the source.
	SharesOutstanding *float64 `db:"shares_outstanding"`

	// Month-end price; the source substitutes a bid/ask midpoint when no
	// closing trade occurred.
	Price *float64 `db:"price"`

	// Single-character primary exchange code (N, A, Q, ...).
	PrimaryExchangeCode string `db:"primary_exchange_code"`

	// Standard Industrial Classification code.
	IndustryCode int `db:"industry_code"`
}

// DailySecurityRecord is a raw daily return observation used only for the
// trailing volatility computation. Rows with NULL returns are dropped at the
// source boundary.
type DailySecurityRecord struct {
	SecurityID int64     `db:"security_id"`
	Date       time.Time `db:"date"`
	Return     float64   `db:"return"`
}

// LinkRecord maps a security identifier to an accounting-entity identifier
// over a validity window. An open-ended link (nil ValidTo) is treated as valid
// through the current date.
type LinkRecord struct {
	SecurityID int64      `db:"security_id"`
	EntityID   *string    `db:"entity_id"`
	ValidFrom  time.Time  `db:"valid_from"`
	ValidTo    *time.Time `db:"valid_to"`
}

// SecurityMonthPanel is one cleaned security-month of the monthly panel.
// Rows with an undefined excess return or market cap have already been
// dropped; the remaining nullable fields (size, momentum, volatility, linked
// entity) stay null until the final assembly completeness filter.
type SecurityMonthPanel struct {
	SecurityID int64            `db:"security_id" csv:"security_id"`
	EntityID   *string          `db:"entity_id" csv:"entity_id"`
	Exchange   ExchangeCategory `db:"exchange" csv:"exchange"`
	Industry   IndustryCategory `db:"industry" csv:"industry"`
	Period     time.Time        `db:"period" csv:"period"`
	Size       *SizeCategory    `db:"size_category" csv:"size_category"`

	// Market capitalization in millions: shares outstanding x price.
	MarketCap float64 `db:"market_cap" csv:"market_cap"`

	// Monthly return minus the contemporaneous monthly risk-free rate.
	ExcessReturn float64 `db:"excess_return" csv:"excess_return"`

	// Compounded excess return over the 11 months ending one month before
	// this period. Undefined for a security's first 12 observed months.
	Momentum *float64 `db:"momentum" csv:"momentum"`

	// Standard deviation of the trailing 60 daily excess returns ending at
	// the prior day; requires at least 20 observations.
	Volatility *float64 `db:"volatility" csv:"volatility"`
}
