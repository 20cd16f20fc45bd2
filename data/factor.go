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

// FactorObservation holds market-wide return factors for one period (a month
// or a day depending on the source frequency). All values are decimal
// fractions; the sources publish percentages and the providers divide by 100
// before constructing observations.
//
// RMW and CMA are only present for the five-factor set and stay nil for the
// three-factor set.
type FactorObservation struct {
	Period time.Time `db:"period" csv:"period"`

	// Return of the market portfolio minus the risk-free rate.
	MktExcessReturn float64 `db:"market_excess_return" csv:"market_excess_return"`

	// Small-minus-big: the return spread between small- and large-cap stocks.
	SMB float64 `db:"smb" csv:"smb"`

	// High-minus-low: the return spread between high and low book-to-market
	// stocks.
	HML float64 `db:"hml" csv:"hml"`

	// Risk-free rate, typically the one-month treasury bill return.
	RF float64 `db:"rf" csv:"rf"`

	// Robust-minus-weak: the return spread between high- and low-profitability
	// firms (five-factor set only).
	RMW *float64 `db:"rmw" csv:"rmw"`

	// Conservative-minus-aggressive: the return spread between firms with
	// conservative and aggressive investment policies (five-factor set only).
	CMA *float64 `db:"cma" csv:"cma"`
}

// QFactorObservation holds one month of q-factor model returns, decimal
// fractions.
type QFactorObservation struct {
	Period time.Time `db:"period" csv:"period"`
	ME     float64   `db:"me" csv:"me"`
	IA     float64   `db:"ia" csv:"ia"`
	ROE    float64   `db:"roe" csv:"roe"`
	EG     float64   `db:"eg" csv:"eg"`
}

// VolFactorObservation is one month of the volatility factor built from 2x3
// size/volatility portfolio sorts.
type VolFactorObservation struct {
	Period time.Time `db:"period" csv:"period"`
	Vol    float64   `db:"vol" csv:"vol"`
}
