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
	"math"
	"testing"
	"time"

	"github.com/factor-lab/fmdata/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endToEndInputs builds a two-security, two-firm universe over 2019-01 through
// 2021-02 with constant monthly returns and enough daily history for the
// volatility window.
func endToEndInputs() (fundamentals []data.FundamentalRecord, monthly []data.SecurityMonthRecord,
	daily []data.DailySecurityRecord, monthlyFactors, dailyFactors []data.FactorObservation,
	links []data.LinkRecord) {

	fundamentals = []data.FundamentalRecord{
		{EntityID: "A", FiscalDate: fiscalDate(2018, time.December, 31),
			StockholdersEquity: ptr(40), TotalAssets: ptr(200), Sales: ptr(80)},
		{EntityID: "A", FiscalDate: fiscalDate(2019, time.December, 31),
			StockholdersEquity: ptr(50), TotalAssets: ptr(250), Sales: ptr(100), CostOfGoodsSold: ptr(40)},
		{EntityID: "B", FiscalDate: fiscalDate(2018, time.December, 31),
			StockholdersEquity: ptr(15), TotalAssets: ptr(100), Sales: ptr(30)},
		{EntityID: "B", FiscalDate: fiscalDate(2019, time.December, 31),
			StockholdersEquity: ptr(20), TotalAssets: ptr(110), Sales: ptr(40), CostOfGoodsSold: ptr(10)},
	}

	start := month(2019, time.January)
	for i := 0; i < 26; i++ {
		period := data.AddMonths(start, i)
		monthly = append(monthly,
			monthRecord(1, period, 0.01, 100, "N"),
			monthRecord(2, period, 0.02, 50, "Q"))
		monthlyFactors = append(monthlyFactors, data.FactorObservation{Period: period, RF: 0})

		for day := 1; day <= 21; day++ {
			date := time.Date(period.Year(), period.Month(), day, 0, 0, 0, 0, time.UTC)
			ret := 0.01
			if day%2 == 0 {
				ret = -0.01
			}
			daily = append(daily,
				data.DailySecurityRecord{SecurityID: 1, Date: date, Return: ret},
				data.DailySecurityRecord{SecurityID: 2, Date: date, Return: ret * 2})
			dailyFactors = append(dailyFactors, data.FactorObservation{Period: date, RF: 0})
		}
	}

	entityA := "A"
	entityB := "B"
	linkStart := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	links = []data.LinkRecord{
		{SecurityID: 1, EntityID: &entityA, ValidFrom: linkStart},
		{SecurityID: 2, EntityID: &entityB, ValidFrom: linkStart},
	}

	return fundamentals, monthly, daily, monthlyFactors, dailyFactors, links
}

func TestEndToEndPanel(t *testing.T) {
	rawFundamentals, monthly, daily, monthlyFactors, dailyFactors, links := endToEndInputs()

	dr, err := data.NewDateRangeFromStrings("2018-01-01", "2021-12-31")
	require.NoError(t, err)

	fundamentals := ProcessFundamentals(rawFundamentals, dr)
	securities := ProcessSecurities(monthly, monthlyFactors, links, daily, dailyFactors, dr)

	panel, err := Assemble(fundamentals, securities, 6)
	require.NoError(t, err)

	// fiscal 2019 characteristics take effect June 2020 and the last month
	// with a forward return is January 2021: eight months for each security
	require.Len(t, panel, 16)

	// canonical (security_id, period) ordering
	for i := 1; i < len(panel); i++ {
		prev, cur := panel[i-1], panel[i]
		assert.True(t, prev.SecurityID < cur.SecurityID ||
			(prev.SecurityID == cur.SecurityID && prev.Period.Before(cur.Period)))
	}

	first := panel[0]
	assert.Equal(t, int64(1), first.SecurityID)
	assert.Equal(t, month(2020, time.June), first.Period)

	// the lone NYSE security defines the breakpoints, so it classifies Large
	// and the smaller NASDAQ security Micro
	assert.Equal(t, data.LargeCap, first.Size)
	assert.Equal(t, data.MicroCap, panel[8].Size)

	assert.InDelta(t, math.Log(50.0/100.0), first.LogBookMarket, 1e-12)
	assert.InDelta(t, math.Log(100.0), first.LogMarketCap, 1e-12)
	assert.InDelta(t, 1.2, first.OperatingProfitability, 1e-12) // (100-40)/50
	assert.InDelta(t, 0.25, first.Investment, 1e-12)            // 250/200 - 1

	assert.InDelta(t, 0.01, first.ExcessReturn, 1e-12)
	assert.InDelta(t, 0.01, first.FwdExcessReturn, 1e-12)
	assert.InDelta(t, math.Pow(1.01, 11)-1, first.Momentum, 1e-12)
	assert.Greater(t, first.Volatility, 0.0)

	second := panel[8]
	assert.Equal(t, int64(2), second.SecurityID)
	assert.InDelta(t, math.Log(20.0/50.0), second.LogBookMarket, 1e-12)
	assert.InDelta(t, 1.5, second.OperatingProfitability, 1e-12) // (40-10)/20
}

func TestEndToEndDeterminism(t *testing.T) {
	rawFundamentals, monthly, daily, monthlyFactors, dailyFactors, links := endToEndInputs()

	dr, err := data.NewDateRangeFromStrings("2018-01-01", "2021-12-31")
	require.NoError(t, err)

	build := func() []data.AssembledPanelRow {
		panel, err := Assemble(
			ProcessFundamentals(rawFundamentals, dr),
			ProcessSecurities(monthly, monthlyFactors, links, daily, dailyFactors, dr),
			6)
		require.NoError(t, err)
		return panel
	}

	first := build()

	// reverse every input slice; outputs must not move
	reverse(rawFundamentals)
	reverse(monthly)
	reverse(daily)
	reverse(monthlyFactors)
	reverse(dailyFactors)
	reverse(links)

	assert.Equal(t, first, build())
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
