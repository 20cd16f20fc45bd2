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
)

// BuildVolFactor constructs a monthly volatility factor from the cleaned
// security panel using the 2x3 double-sort of the Fama-French factory:
// securities with a defined trailing volatility are split at the NYSE median
// market cap and at the NYSE 30th/70th volatility percentiles, portfolio
// excess returns are value-weighted by market cap, and the factor is the
// average high-minus-low volatility spread across the two size legs. Periods
// missing any corner portfolio are skipped.
func BuildVolFactor(rows []data.SecurityMonthPanel) []data.VolFactorObservation {
	byPeriod := make(map[time.Time][]data.SecurityMonthPanel)
	for _, row := range rows {
		if row.Volatility == nil {
			continue
		}
		byPeriod[row.Period] = append(byPeriod[row.Period], row)
	}

	factor := make([]data.VolFactorObservation, 0, len(byPeriod))
	for period, periodRows := range byPeriod {
		var nyseCaps, nyseVols []float64
		for _, row := range periodRows {
			if row.Exchange == data.NYSE {
				nyseCaps = append(nyseCaps, row.MarketCap)
				nyseVols = append(nyseVols, *row.Volatility)
			}
		}
		if len(nyseCaps) == 0 {
			continue
		}

		sizeBreak := quantile(0.5, nyseCaps)
		volLow := quantile(0.30, nyseVols)
		volHigh := quantile(0.70, nyseVols)

		// [size 0=small 1=big][vol 0=low 1=mid 2=high]
		var weightedSum, weight [2][3]float64
		for _, row := range periodRows {
			size := 0
			if row.MarketCap >= sizeBreak {
				size = 1
			}
			vol := 1
			switch {
			case *row.Volatility >= volHigh:
				vol = 2
			case *row.Volatility < volLow:
				vol = 0
			}
			weightedSum[size][vol] += row.MarketCap * row.ExcessReturn
			weight[size][vol] += row.MarketCap
		}

		if weight[0][0] == 0 || weight[0][2] == 0 || weight[1][0] == 0 || weight[1][2] == 0 {
			continue
		}

		smallSpread := weightedSum[0][2]/weight[0][2] - weightedSum[0][0]/weight[0][0]
		bigSpread := weightedSum[1][2]/weight[1][2] - weightedSum[1][0]/weight[1][0]

		factor = append(factor, data.VolFactorObservation{
			Period: period,
			Vol:    0.5 * (smallSpread + bigSpread),
		})
	}

	sort.Slice(factor, func(i, j int) bool {
		return factor[i].Period.Before(factor[j].Period)
	})

	return factor
}
