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

	"github.com/factor-lab/fmdata/data"
)

// ProcessFundamentals transforms raw firm-fiscal-period statement records into
// annual firm-year characteristics: book equity, operating profitability and
// investment (asset growth). When a firm reports multiple fiscal periods in
// one calendar year only the latest survives; on equal fiscal dates the record
// appearing last in fetch order wins. Empty input yields empty output.
func ProcessFundamentals(raw []data.FundamentalRecord, dr data.DateRange) []data.FirmYearCharacteristic {
	type firmYear struct {
		entityID string
		year     int
	}

	// one pass: compute per-record characteristics and keep the latest record
	// per firm-year
	latest := make(map[firmYear]data.FirmYearCharacteristic)
	for _, rec := range raw {
		if !dr.Contains(rec.FiscalDate) {
			continue
		}

		be := bookEquity(rec)
		characteristic := data.FirmYearCharacteristic{
			EntityID:               rec.EntityID,
			FiscalDate:             rec.FiscalDate,
			Year:                   rec.FiscalDate.Year(),
			BookEquity:             be,
			OperatingProfitability: operatingProfitability(rec, be),
			TotalAssets:            rec.TotalAssets,
		}

		key := firmYear{entityID: rec.EntityID, year: characteristic.Year}
		if existing, ok := latest[key]; !ok || !characteristic.FiscalDate.Before(existing.FiscalDate) {
			latest[key] = characteristic
		}
	}

	characteristics := make([]data.FirmYearCharacteristic, 0, len(latest))
	for _, c := range latest {
		characteristics = append(characteristics, c)
	}

	sort.Slice(characteristics, func(i, j int) bool {
		if characteristics[i].EntityID != characteristics[j].EntityID {
			return characteristics[i].EntityID < characteristics[j].EntityID
		}
		return characteristics[i].Year < characteristics[j].Year
	})

	// investment requires the prior firm-year's total assets, so it is
	// computed after deduplication
	for i := range characteristics {
		prior, ok := latest[firmYear{entityID: characteristics[i].EntityID, year: characteristics[i].Year - 1}]
		if !ok {
			continue
		}
		characteristics[i].Investment = assetGrowth(characteristics[i].TotalAssets, prior.TotalAssets)
	}

	return characteristics
}

// bookEquity computes book equity with the standard fallback chains:
// shareholders' equity (or common equity + preferred stock, or assets less
// liabilities) plus deferred taxes and investment tax credit, less the
// redemption (or liquidating, or carrying) value of preferred stock.
// Non-positive results are undefined.
func bookEquity(rec data.FundamentalRecord) *float64 {
	equity := coalesce(
		rec.StockholdersEquity,
		addPtr(rec.CommonEquity, rec.PreferredStock),
		subPtr(rec.TotalAssets, rec.TotalLiabilities))
	if equity == nil {
		return nil
	}

	deferredTaxes := coalesceOrZero(
		rec.DeferredTaxesAndITC,
		addPtr(rec.DeferredTaxes, rec.InvestmentTaxCredit))

	preferred := coalesceOrZero(
		rec.PreferredRedemption,
		rec.PreferredLiquidating,
		rec.PreferredStock)

	be := *equity + deferredTaxes - preferred
	if be <= 0 {
		return nil
	}
	return &be
}

// operatingProfitability is revenue less cost of goods sold, SG&A and interest
// expense, scaled by book equity. Undefined when sales or book equity is
// undefined; missing expense items count as zero.
func operatingProfitability(rec data.FundamentalRecord, be *float64) *float64 {
	if rec.Sales == nil || be == nil {
		return nil
	}

	op := (*rec.Sales -
		coalesceOrZero(rec.CostOfGoodsSold) -
		coalesceOrZero(rec.SGA) -
		coalesceOrZero(rec.InterestExpense)) / *be
	return &op
}

// assetGrowth is total assets over prior-year total assets, minus one.
// Undefined when either year is missing or the prior year is non-positive.
func assetGrowth(current, prior *float64) *float64 {
	if current == nil || prior == nil || *prior <= 0 {
		return nil
	}
	growth := *current / *prior - 1
	return &growth
}
