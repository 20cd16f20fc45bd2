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

// Package regression estimates factor risk premia from the assembled panel
// with the Fama-MacBeth two-pass procedure: a cross-sectional regression of
// one-month-ahead excess returns on firm characteristics for every period,
// then time-series averages of the per-period slopes with Newey-West
// heteroskedasticity and autocorrelation consistent standard errors.
package regression

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/factor-lab/fmdata/data"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrDropTailTooLarge reports a drop-tail percentile that would discard a
	// quarter or more of the cross-sections.
	ErrDropTailTooLarge = errors.New("drop-tail percentile must be below 0.25")

	// ErrNoCrossSections reports a panel with no estimable period.
	ErrNoCrossSections = errors.New("no cross-section could be estimated")
)

// neweyWestLags is the maximum autocorrelation lag of the HAC standard error,
// matching the six-month accounting publication lag.
const neweyWestLags = 6

// factorColumns names the regressors in panel column order. The intercept is
// prepended by the design-matrix builder.
var factorColumns = []string{
	"log_market_cap",
	"log_book_market",
	"operating_profitability",
	"investment",
	"excess_return",
	"momentum",
	"volatility",
}

// Options controls a Fama-MacBeth estimation run.
type Options struct {
	// Weighted switches the per-period cross-sections from OLS to WLS with
	// market-cap weights, tilting the estimates toward the returns of large
	// firms.
	Weighted bool

	// DropTailPercentile, when positive, drops periods whose cross-section
	// size falls below this empirical percentile of all period sizes. Must be
	// less than 0.25.
	DropTailPercentile float64

	// Size restricts the panel to one size category; empty means all firms.
	Size data.SizeCategory
}

// PremiumEstimate is the estimated monthly risk premium of one factor, in
// percent, with its Newey-West t-statistic. Both are rounded to three decimal
// places.
type PremiumEstimate struct {
	Factor      string  `db:"factor" csv:"factor"`
	RiskPremium float64 `db:"risk_premium" csv:"risk_premium"`
	TStat       float64 `db:"t_stat" csv:"t_stat"`
}

// Run estimates risk premia from the assembled panel. Results are in design
// column order, intercept first. Periods too small to identify the regression
// or with a singular design are skipped with a warning rather than failing
// the whole run.
func Run(panel []data.AssembledPanelRow, opts Options) ([]PremiumEstimate, error) {
	if opts.DropTailPercentile < 0 || opts.DropTailPercentile >= 0.25 {
		return nil, fmt.Errorf("%w: %f", ErrDropTailTooLarge, opts.DropTailPercentile)
	}

	byPeriod := make(map[time.Time][]data.AssembledPanelRow)
	for _, row := range panel {
		if opts.Size != "" && row.Size != opts.Size {
			continue
		}
		byPeriod[row.Period] = append(byPeriod[row.Period], row)
	}

	periods := make([]time.Time, 0, len(byPeriod))
	for period := range byPeriod {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	if opts.DropTailPercentile > 0 && len(periods) > 0 {
		periods = dropSmallCrossSections(periods, byPeriod, opts.DropTailPercentile)
	}

	cols := len(factorColumns) + 1
	slopes := make([][]float64, cols)

	for _, period := range periods {
		rows := byPeriod[period]
		if len(rows) <= cols {
			log.Warn().Time("Period", period).Int("NumRows", len(rows)).
				Msg("cross-section too small; skipping period")
			continue
		}

		coef, err := crossSection(rows, opts.Weighted)
		if err != nil {
			log.Warn().Err(err).Time("Period", period).
				Msg("cross-section regression failed; skipping period")
			continue
		}

		for c := 0; c < cols; c++ {
			slopes[c] = append(slopes[c], coef[c])
		}
	}

	if len(slopes[0]) == 0 {
		return nil, ErrNoCrossSections
	}

	estimates := make([]PremiumEstimate, 0, cols)
	for c := 0; c < cols; c++ {
		name := "intercept"
		if c > 0 {
			name = factorColumns[c-1]
		}

		mean := stat.Mean(slopes[c], nil)
		se := neweyWestSE(slopes[c], neweyWestLags)

		estimates = append(estimates, PremiumEstimate{
			Factor:      name,
			RiskPremium: round3(100 * mean),
			TStat:       round3(mean / se),
		})
	}

	return estimates, nil
}

// dropSmallCrossSections removes periods whose row count falls below the
// empirical p-percentile of all period row counts.
func dropSmallCrossSections(periods []time.Time, byPeriod map[time.Time][]data.AssembledPanelRow, p float64) []time.Time {
	counts := make([]float64, 0, len(periods))
	for _, period := range periods {
		counts = append(counts, float64(len(byPeriod[period])))
	}
	sort.Float64s(counts)
	threshold := stat.Quantile(p, stat.Empirical, counts, nil)

	kept := periods[:0]
	for _, period := range periods {
		if float64(len(byPeriod[period])) >= threshold {
			kept = append(kept, period)
		}
	}
	return kept
}

// crossSection solves one period's regression of forward excess returns on
// the characteristics, by QR decomposition. Weighted estimation scales each
// observation by the square root of its market cap, which is equivalent to
// WLS with market-cap weights.
func crossSection(rows []data.AssembledPanelRow, weighted bool) ([]float64, error) {
	n := len(rows)
	cols := len(factorColumns) + 1

	x := mat.NewDense(n, cols, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range rows {
		scale := 1.0
		if weighted {
			scale = math.Sqrt(row.MarketCap)
		}

		x.SetRow(i, []float64{
			scale,
			scale * row.LogMarketCap,
			scale * row.LogBookMarket,
			scale * row.OperatingProfitability,
			scale * row.Investment,
			scale * row.ExcessReturn,
			scale * row.Momentum,
			scale * row.Volatility,
		})
		y.SetVec(i, scale*row.FwdExcessReturn)
	}

	var qr mat.QR
	qr.Factorize(x)

	coef := mat.NewDense(cols, 1, nil)
	if err := qr.SolveTo(coef, false, y); err != nil {
		return nil, err
	}

	out := make([]float64, cols)
	for c := 0; c < cols; c++ {
		out[c] = coef.At(c, 0)
	}
	return out, nil
}

// neweyWestSE is the Newey-West HAC standard error of the mean of a
// time series, with Bartlett kernel weights and at most maxLags lags.
func neweyWestSE(series []float64, maxLags int) float64 {
	t := len(series)
	mean := stat.Mean(series, nil)

	resid := make([]float64, t)
	for i, v := range series {
		resid[i] = v - mean
	}

	lags := maxLags
	if lags > t-1 {
		lags = t - 1
	}

	s := autocovariance(resid, 0)
	for l := 1; l <= lags; l++ {
		weight := 1 - float64(l)/float64(lags+1)
		s += 2 * weight * autocovariance(resid, l)
	}

	return math.Sqrt(s / float64(t))
}

func autocovariance(resid []float64, lag int) float64 {
	var sum float64
	for i := lag; i < len(resid); i++ {
		sum += resid[i] * resid[i-lag]
	}
	return sum / float64(len(resid))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
