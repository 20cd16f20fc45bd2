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
package pipeline

import (
	"sort"
	"time"

	"github.com/factor-lab/fmdata/data"
	"github.com/rs/zerolog/log"
)

const (
	// momentum compounds the 11 monthly excess returns ending one month
	// before the current period, so a security needs 12 prior observations
	momentumLookback = 12

	// volatility window: trailing daily excess returns ending at the prior
	// day, with a minimum observation requirement
	volatilityWindow     = 60
	volatilityMinPeriods = 20

	// NYSE market-cap percentile breakpoints for size classification
	smallCapPercentile = 0.30
	largeCapPercentile = 0.70
)

// ProcessSecurities transforms raw security-month records into the cleaned
// monthly panel: exchange/industry classification, market cap, excess return,
// NYSE-breakpoint size category, trailing momentum, trailing daily volatility
// and the link to an accounting entity. Rows whose excess return or market cap
// is undefined are dropped; all other undefined fields propagate as nil.
//
// The result is in canonical (security_id, period) order and is independent of
// the ordering of every input slice.
func ProcessSecurities(raw []data.SecurityMonthRecord, factors []data.FactorObservation,
	links []data.LinkRecord, daily []data.DailySecurityRecord,
	dailyFactors []data.FactorObservation, dr data.DateRange) []data.SecurityMonthPanel {

	riskFree := riskFreeByPeriod(factors)

	rows := make([]data.SecurityMonthPanel, 0, len(raw))
	for _, rec := range raw {
		if !dr.Contains(rec.Period) {
			continue
		}

		marketCap := marketCapOf(rec)
		rf, haveRF := riskFree[data.MonthStart(rec.Period)]
		if rec.Return == nil || !haveRF || marketCap == nil {
			continue
		}

		rows = append(rows, data.SecurityMonthPanel{
			SecurityID:   rec.SecurityID,
			Exchange:     data.ExchangeFromCode(rec.PrimaryExchangeCode),
			Industry:     data.IndustryFromSIC(rec.IndustryCode),
			Period:       data.MonthStart(rec.Period),
			MarketCap:    *marketCap,
			ExcessReturn: *rec.Return - rf,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SecurityID != rows[j].SecurityID {
			return rows[i].SecurityID < rows[j].SecurityID
		}
		return rows[i].Period.Before(rows[j].Period)
	})

	attachMomentum(rows)
	attachVolatility(rows, daily, dailyFactors)
	attachSizeCategories(rows)
	attachLinks(rows, links)

	return rows
}

// marketCapOf computes market capitalization in millions from shares
// outstanding (reported in thousands) and the month-end price. Zero is a
// placeholder in the source data, not a real market cap, so it becomes nil.
func marketCapOf(rec data.SecurityMonthRecord) *float64 {
	if rec.SharesOutstanding == nil || rec.Price == nil {
		return nil
	}
	cap := *rec.SharesOutstanding * 1000 * *rec.Price / 1e6
	if cap == 0 {
		return nil
	}
	return &cap
}

func riskFreeByPeriod(factors []data.FactorObservation) map[time.Time]float64 {
	rf := make(map[time.Time]float64, len(factors))
	for _, f := range factors {
		rf[data.MonthStart(f.Period)] = f.RF
	}
	return rf
}

// attachMomentum fills the momentum column in place. rows must already be in
// (security_id, period) order. Within each security's subsequence, index i
// gets the compounded excess return of observations [i-12, i-2] once twelve
// prior observations exist.
func attachMomentum(rows []data.SecurityMonthPanel) {
	forEachSecurity(rows, func(security []data.SecurityMonthPanel) {
		returns := make([]float64, len(security))
		for i := range security {
			returns[i] = security[i].ExcessReturn
		}

		for i := momentumLookback; i < len(security); i++ {
			security[i].Momentum = ptr(compound(returns[i-momentumLookback : i-1]))
		}
	})
}

// attachVolatility computes per-security rolling standard deviations of daily
// excess returns (window 60 ending at the prior day, minimum 20 observations)
// and attaches, to each security-month, the value at the security's final
// trading day of that month.
func attachVolatility(rows []data.SecurityMonthPanel, daily []data.DailySecurityRecord,
	dailyFactors []data.FactorObservation) {

	rfByDate := make(map[time.Time]float64, len(dailyFactors))
	for _, f := range dailyFactors {
		rfByDate[f.Period] = f.RF
	}

	sorted := make([]data.DailySecurityRecord, len(daily))
	copy(sorted, daily)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SecurityID != sorted[j].SecurityID {
			return sorted[i].SecurityID < sorted[j].SecurityID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	type securityMonth struct {
		securityID int64
		month      time.Time
	}

	// value at the last daily observation of each security-month; overwritten
	// as later days in the month are processed
	monthEnd := make(map[securityMonth]*float64)

	for lo := 0; lo < len(sorted); {
		hi := lo
		for hi < len(sorted) && sorted[hi].SecurityID == sorted[lo].SecurityID {
			hi++
		}

		series := sorted[lo:hi]
		excess := make([]float64, 0, len(series))
		dates := make([]time.Time, 0, len(series))
		for _, d := range series {
			rf, ok := rfByDate[d.Date]
			if !ok {
				continue
			}
			// clip at -1: a security cannot lose more than 100%
			e := d.Return - rf
			if e < -1 {
				e = -1
			}
			excess = append(excess, e)
			dates = append(dates, d.Date)
		}

		vol := rollingStd(excess, volatilityWindow, volatilityMinPeriods)
		for i := range dates {
			monthEnd[securityMonth{securityID: series[0].SecurityID, month: data.MonthStart(dates[i])}] = vol[i]
		}

		lo = hi
	}

	for i := range rows {
		if v, ok := monthEnd[securityMonth{securityID: rows[i].SecurityID, month: rows[i].Period}]; ok {
			rows[i].Volatility = v
		}
	}
}

// attachSizeCategories classifies every row against the NYSE 30th/70th
// market-cap percentiles of its period. A period without NYSE rows has no
// breakpoints and its rows keep a nil size category.
func attachSizeCategories(rows []data.SecurityMonthPanel) {
	nyseCaps := make(map[time.Time][]float64)
	for _, row := range rows {
		if row.Exchange == data.NYSE {
			nyseCaps[row.Period] = append(nyseCaps[row.Period], row.MarketCap)
		}
	}

	type breakpoints struct {
		small float64
		large float64
	}
	thresholds := make(map[time.Time]breakpoints, len(nyseCaps))
	for period, caps := range nyseCaps {
		thresholds[period] = breakpoints{
			small: quantile(smallCapPercentile, caps),
			large: quantile(largeCapPercentile, caps),
		}
	}

	for i := range rows {
		bp, ok := thresholds[rows[i].Period]
		if !ok {
			continue
		}

		size := data.MicroCap
		switch {
		case rows[i].MarketCap >= bp.large:
			size = data.LargeCap
		case rows[i].MarketCap >= bp.small:
			size = data.SmallCap
		}
		rows[i].Size = &size
	}
}

// attachLinks assigns the linked accounting entity to each row: the first
// link, in valid_from ascending order, whose validity window covers the row's
// period. Open-ended links are valid through the current date. Overlapping
// matches should not occur under a well-formed link table; they resolve to
// the first match and are logged so upstream problems stay visible.
func attachLinks(rows []data.SecurityMonthPanel, links []data.LinkRecord) {
	now := time.Now().UTC()

	bySecurity := make(map[int64][]data.LinkRecord)
	for _, link := range links {
		if link.EntityID == nil {
			continue
		}
		bySecurity[link.SecurityID] = append(bySecurity[link.SecurityID], link)
	}
	for _, securityLinks := range bySecurity {
		sort.SliceStable(securityLinks, func(i, j int) bool {
			return securityLinks[i].ValidFrom.Before(securityLinks[j].ValidFrom)
		})
	}

	overlaps := make(map[int64]int)
	for i := range rows {
		matched := 0
		for _, link := range bySecurity[rows[i].SecurityID] {
			validTo := now
			if link.ValidTo != nil {
				validTo = *link.ValidTo
			}
			if rows[i].Period.Before(link.ValidFrom) || rows[i].Period.After(validTo) {
				continue
			}

			if matched == 0 {
				rows[i].EntityID = link.EntityID
			}
			matched++
		}
		if matched > 1 {
			overlaps[rows[i].SecurityID]++
		}
	}

	for securityID, count := range overlaps {
		log.Warn().Int64("SecurityID", securityID).Int("NumPeriods", count).
			Msg("overlapping link records; first match in valid_from order used")
	}
}

// forEachSecurity applies fn to each contiguous single-security slice of rows.
// rows must be sorted by (security_id, period); fn may mutate its slice but
// must not reorder it.
func forEachSecurity(rows []data.SecurityMonthPanel, fn func(security []data.SecurityMonthPanel)) {
	for lo := 0; lo < len(rows); {
		hi := lo
		for hi < len(rows) && rows[hi].SecurityID == rows[lo].SecurityID {
			hi++
		}
		fn(rows[lo:hi])
		lo = hi
	}
}
