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
	"testing"
	"time"

	"github.com/factor-lab/fmdata/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiscalDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func fullRange(t *testing.T) data.DateRange {
	t.Helper()
	dr, err := data.NewDateRangeFromStrings("1960-01-01", "2030-12-31")
	require.NoError(t, err)
	return dr
}

func TestBookEquityFallbacks(t *testing.T) {
	// stockholders' equity preferred over every fallback
	be := bookEquity(data.FundamentalRecord{
		StockholdersEquity: ptr(100),
		CommonEquity:       ptr(50),
		PreferredStock:     ptr(10),
		TotalAssets:        ptr(500),
		TotalLiabilities:   ptr(100),
	})
	require.NotNil(t, be)
	assert.InDelta(t, 90, *be, 1e-12) // 100 - preferred carrying 10

	// common equity + preferred stock when stockholders' equity is missing
	be = bookEquity(data.FundamentalRecord{
		CommonEquity:   ptr(50),
		PreferredStock: ptr(10),
	})
	require.NotNil(t, be)
	assert.InDelta(t, 50, *be, 1e-12) // (50+10) - 10

	// assets less liabilities as the last equity fallback
	be = bookEquity(data.FundamentalRecord{
		TotalAssets:      ptr(500),
		TotalLiabilities: ptr(350),
	})
	require.NotNil(t, be)
	assert.InDelta(t, 150, *be, 1e-12)

	// deferred taxes: combined item beats the sum of the split items
	be = bookEquity(data.FundamentalRecord{
		StockholdersEquity:  ptr(100),
		DeferredTaxesAndITC: ptr(7),
		DeferredTaxes:       ptr(3),
		InvestmentTaxCredit: ptr(2),
	})
	require.NotNil(t, be)
	assert.InDelta(t, 107, *be, 1e-12)

	// preferred value: redemption beats liquidating beats carrying
	be = bookEquity(data.FundamentalRecord{
		StockholdersEquity:   ptr(100),
		PreferredRedemption:  ptr(20),
		PreferredLiquidating: ptr(15),
		PreferredStock:       ptr(10),
	})
	require.NotNil(t, be)
	assert.InDelta(t, 80, *be, 1e-12)

	// no equity source at all
	assert.Nil(t, bookEquity(data.FundamentalRecord{Sales: ptr(10)}))

	// non-positive book equity is undefined, not an error
	assert.Nil(t, bookEquity(data.FundamentalRecord{
		StockholdersEquity:  ptr(5),
		PreferredRedemption: ptr(10),
	}))
}

func TestOperatingProfitability(t *testing.T) {
	rec := data.FundamentalRecord{
		Sales:           ptr(200),
		CostOfGoodsSold: ptr(80),
		SGA:             ptr(30),
		InterestExpense: ptr(10),
	}

	op := operatingProfitability(rec, ptr(100))
	require.NotNil(t, op)
	assert.InDelta(t, 0.8, *op, 1e-12)

	// missing expense items count as zero
	op = operatingProfitability(data.FundamentalRecord{Sales: ptr(50)}, ptr(100))
	require.NotNil(t, op)
	assert.InDelta(t, 0.5, *op, 1e-12)

	assert.Nil(t, operatingProfitability(rec, nil))
	assert.Nil(t, operatingProfitability(data.FundamentalRecord{}, ptr(100)))
}

func TestProcessFundamentalsDeduplicatesFirmYears(t *testing.T) {
	raw := []data.FundamentalRecord{
		{EntityID: "001", FiscalDate: fiscalDate(2020, time.March, 31), StockholdersEquity: ptr(100)},
		{EntityID: "001", FiscalDate: fiscalDate(2020, time.December, 31), StockholdersEquity: ptr(200)},
		{EntityID: "001", FiscalDate: fiscalDate(2020, time.June, 30), StockholdersEquity: ptr(150)},
	}

	out := ProcessFundamentals(raw, fullRange(t))
	require.Len(t, out, 1)
	assert.Equal(t, fiscalDate(2020, time.December, 31), out[0].FiscalDate)
	assert.InDelta(t, 200, *out[0].BookEquity, 1e-12)
}

func TestProcessFundamentalsTieKeepsLastFetched(t *testing.T) {
	raw := []data.FundamentalRecord{
		{EntityID: "001", FiscalDate: fiscalDate(2020, time.December, 31), StockholdersEquity: ptr(100)},
		{EntityID: "001", FiscalDate: fiscalDate(2020, time.December, 31), StockholdersEquity: ptr(300)},
	}

	out := ProcessFundamentals(raw, fullRange(t))
	require.Len(t, out, 1)
	assert.InDelta(t, 300, *out[0].BookEquity, 1e-12)
}

func TestProcessFundamentalsInvestment(t *testing.T) {
	raw := []data.FundamentalRecord{
		{EntityID: "001", FiscalDate: fiscalDate(2019, time.December, 31), StockholdersEquity: ptr(100), TotalAssets: ptr(400)},
		{EntityID: "001", FiscalDate: fiscalDate(2020, time.December, 31), StockholdersEquity: ptr(100), TotalAssets: ptr(500)},
		// a different firm has no prior year
		{EntityID: "002", FiscalDate: fiscalDate(2020, time.December, 31), StockholdersEquity: ptr(100), TotalAssets: ptr(500)},
	}

	out := ProcessFundamentals(raw, fullRange(t))
	require.Len(t, out, 3)

	// canonical order: entity then year
	assert.Equal(t, "001", out[0].EntityID)
	assert.Nil(t, out[0].Investment)

	require.NotNil(t, out[1].Investment)
	assert.InDelta(t, 0.25, *out[1].Investment, 1e-12)

	assert.Equal(t, "002", out[2].EntityID)
	assert.Nil(t, out[2].Investment)
}

func TestProcessFundamentalsRangeAndEmptyInput(t *testing.T) {
	assert.Empty(t, ProcessFundamentals(nil, fullRange(t)))

	dr, err := data.NewDateRangeFromStrings("2020-01-01", "2020-12-31")
	require.NoError(t, err)

	raw := []data.FundamentalRecord{
		{EntityID: "001", FiscalDate: fiscalDate(2019, time.December, 31), StockholdersEquity: ptr(100)},
		{EntityID: "001", FiscalDate: fiscalDate(2020, time.December, 31), StockholdersEquity: ptr(100)},
	}
	out := ProcessFundamentals(raw, dr)
	require.Len(t, out, 1)
	assert.Equal(t, 2020, out[0].Year)
}
