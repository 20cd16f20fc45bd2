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

// PriceIndexObservation is one month of a price-level series (e.g. CPI). When
// the source normalizes the series, Value is the index divided by the final
// observation so the most recent period equals 1.
type PriceIndexObservation struct {
	Period time.Time `db:"period" csv:"period"`
	Value  float64   `db:"value" csv:"value"`
}

// MacroPredictorRecord holds one month of derived macroeconomic predictor
// series. All log-ratio transforms are applied at the source; rows with any
// missing component are dropped before the record is constructed.
type MacroPredictorRecord struct {
	Period time.Time `db:"period" csv:"period"`

	// Log dividend-price ratio.
	DP float64 `db:"dp" csv:"dp"`

	// Log dividend yield (dividends over lagged index level).
	DY float64 `db:"dy" csv:"dy"`

	// Log earnings-price ratio.
	EP float64 `db:"ep" csv:"ep"`

	// Log dividend-payout ratio.
	DE float64 `db:"de" csv:"de"`

	// Stock return variance.
	SVAR float64 `db:"svar" csv:"svar"`

	// Book-to-market ratio of the Dow Jones Industrial Average.
	BM float64 `db:"bm" csv:"bm"`

	// Net equity expansion.
	NTIS float64 `db:"ntis" csv:"ntis"`

	// Treasury bill rate.
	TBL float64 `db:"tbl" csv:"tbl"`

	// Long-term government bond yield.
	LTY float64 `db:"lty" csv:"lty"`

	// Long-term government bond return.
	LTR float64 `db:"ltr" csv:"ltr"`

	// Term spread: long-term yield minus treasury bill rate.
	TMS float64 `db:"tms" csv:"tms"`

	// Default yield spread: BAA minus AAA corporate bond yields.
	DFY float64 `db:"dfy" csv:"dfy"`

	// Inflation, lagged one month.
	INFL float64 `db:"infl" csv:"infl"`
}
