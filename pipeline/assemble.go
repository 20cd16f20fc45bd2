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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/factor-lab/fmdata/data"
)

// ErrNegativeLag reports an invalid accounting publication lag.
var ErrNegativeLag = errors.New("publication lag must be non-negative")

// DefaultLagMonths is the number of months annual accounting data is assumed
// to lag its fiscal period end before the market can trade on it.
const DefaultLagMonths = 6

type entityPeriod struct {
	entityID string
	period   time.Time
}

// characteristic values dated to the month they become tradeable
type laggedCharacteristic struct {
	logBookMarket          *float64
	logMarketCap           *float64
	operatingProfitability *float64
	investment             *float64
}

// Assemble joins firm-year accounting characteristics onto the monthly
// security panel and emits regression-ready rows. Each characteristic set
// becomes effective lagMonths after its fiscal month, is valued against the
// linked security's market cap at the fiscal month, and is forward-filled
// until the firm's next effective set. The dependent variable is the excess
// return one month ahead. Rows missing any regression input are dropped.
func Assemble(fundamentals []data.FirmYearCharacteristic, securities []data.SecurityMonthPanel,
	lagMonths int) ([]data.AssembledPanelRow, error) {

	if lagMonths < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLag, lagMonths)
	}

	// market cap at (entity, month), valuing book equity at the fiscal month.
	// securities is in (security_id, period) order, so when several securities
	// link to one entity the lowest security_id wins deterministically.
	marketCapAt := make(map[entityPeriod]float64)
	for _, row := range securities {
		if row.EntityID == nil {
			continue
		}
		key := entityPeriod{entityID: *row.EntityID, period: row.Period}
		if _, ok := marketCapAt[key]; !ok {
			marketCapAt[key] = row.MarketCap
		}
	}

	characteristics := make(map[entityPeriod]laggedCharacteristic, len(fundamentals))
	for _, fy := range fundamentals {
		fiscalMonth := data.MonthStart(fy.FiscalDate)
		effective := data.AddMonths(fy.FiscalDate, lagMonths)

		lagged := laggedCharacteristic{
			operatingProfitability: fy.OperatingProfitability,
			investment:             fy.Investment,
		}
		if cap, ok := marketCapAt[entityPeriod{entityID: fy.EntityID, period: fiscalMonth}]; ok {
			lagged.logMarketCap = ptr(math.Log(cap))
			if fy.BookEquity != nil {
				lagged.logBookMarket = ptr(math.Log(*fy.BookEquity / cap))
			}
		}

		characteristics[entityPeriod{entityID: fy.EntityID, period: effective}] = lagged
	}

	type securityPeriod struct {
		securityID int64
		period     time.Time
	}
	excessReturnAt := make(map[securityPeriod]float64, len(securities))
	for _, row := range securities {
		excessReturnAt[securityPeriod{securityID: row.SecurityID, period: row.Period}] = row.ExcessReturn
	}

	panel := make([]data.AssembledPanelRow, 0, len(securities))
	forEachSecurity(securities, func(security []data.SecurityMonthPanel) {
		logBM := make([]*float64, len(security))
		logMC := make([]*float64, len(security))
		op := make([]*float64, len(security))
		inv := make([]*float64, len(security))

		for i, row := range security {
			if row.EntityID == nil {
				continue
			}
			lagged, ok := characteristics[entityPeriod{entityID: *row.EntityID, period: row.Period}]
			if !ok {
				continue
			}
			logBM[i] = lagged.logBookMarket
			logMC[i] = lagged.logMarketCap
			op[i] = lagged.operatingProfitability
			inv[i] = lagged.investment
		}

		// accounting characteristics stay in effect until the firm's next
		// effective set
		logBM = forwardFill(logBM)
		logMC = forwardFill(logMC)
		op = forwardFill(op)
		inv = forwardFill(inv)

		for i, row := range security {
			fwd, ok := excessReturnAt[securityPeriod{
				securityID: row.SecurityID,
				period:     data.AddMonths(row.Period, 1),
			}]
			if !ok {
				continue
			}
			if row.Size == nil || row.Momentum == nil || row.Volatility == nil ||
				logBM[i] == nil || logMC[i] == nil || op[i] == nil || inv[i] == nil {
				continue
			}

			panel = append(panel, data.AssembledPanelRow{
				SecurityID:             row.SecurityID,
				Period:                 row.Period,
				Size:                   *row.Size,
				FwdExcessReturn:        fwd,
				LogMarketCap:           *logMC[i],
				MarketCap:              row.MarketCap,
				LogBookMarket:          *logBM[i],
				OperatingProfitability: *op[i],
				Investment:             *inv[i],
				ExcessReturn:           row.ExcessReturn,
				Momentum:               *row.Momentum,
				Volatility:             *row.Volatility,
			})
		}
	})

	return panel, nil
}
