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

// FundamentalRecord is a raw firm-fiscal-period financial statement row as
// returned by the research warehouse. Accounting fields are pointers because
// the warehouse reports many of them as NULL; a nil value means the item was
// not available for the fiscal period, which is different from zero.
type FundamentalRecord struct {
	// [Entity] Permanent firm identifier assigned by the warehouse. Survives
	// ticker changes and listings moves.
	EntityID string `db:"entity_id"`

	// [Entity] End date of the fiscal period the record describes. A firm may
	// report more than one fiscal period within a calendar year (e.g. after a
	// fiscal year-end change); deduplication happens downstream.
	FiscalDate time.Time `db:"fiscal_date"`

	// [Balance Sheet] Total stockholders' equity at period end.
	StockholdersEquity *float64 `db:"stockholders_equity"`

	// [Balance Sheet] Total common/ordinary equity at period end.
	CommonEquity *float64 `db:"common_equity"`

	// [Balance Sheet] Preferred stock carrying value at period end.
	PreferredStock *float64 `db:"preferred_stock"`

	// [Balance Sheet] Preferred stock redemption value.
	PreferredRedemption *float64 `db:"preferred_redemption"`

	// [Balance Sheet] Preferred stock liquidating value.
	PreferredLiquidating *float64 `db:"preferred_liquidating"`

	// [Balance Sheet] Deferred taxes and investment tax credit, combined item.
	DeferredTaxesAndITC *float64 `db:"deferred_taxes_itc"`

	// [Balance Sheet] Deferred taxes, balance sheet item.
	DeferredTaxes *float64 `db:"deferred_taxes"`

	// [Balance Sheet] Investment tax credit, balance sheet item.
	InvestmentTaxCredit *float64 `db:"investment_tax_credit"`

	// [Balance Sheet] Total assets at period end.
	TotalAssets *float64 `db:"total_assets"`

	// [Balance Sheet] Total liabilities at period end.
	TotalLiabilities *float64 `db:"total_liabilities"`

	// [Income Statement] Net sales/turnover for the fiscal period.
	Sales *float64 `db:"sales"`

	// [Income Statement] Cost of goods sold.
	CostOfGoodsSold *float64 `db:"cogs"`

	// [Income Statement] Selling, general and administrative expense.
	SGA *float64 `db:"sga"`

	// [Income Statement] Interest and related expense.
	InterestExpense *float64 `db:"interest_expense"`
}

// FirmYearCharacteristic is the derived annual accounting characteristic set
// for one firm-year. BookEquity, OperatingProfitability and Investment are
// nullable: each is undefined under documented conditions (non-positive book
// equity, missing prior-year assets) and the null propagates through the
// pipeline rather than being escalated to an error.
type FirmYearCharacteristic struct {
	EntityID               string    `db:"entity_id" csv:"entity_id"`
	FiscalDate             time.Time `db:"fiscal_date" csv:"fiscal_date"`
	Year                   int       `db:"year" csv:"year"`
	BookEquity             *float64  `db:"book_equity" csv:"book_equity"`
	OperatingProfitability *float64  `db:"operating_profitability" csv:"operating_profitability"`
	Investment             *float64  `db:"investment" csv:"investment"`

	// TotalAssets is carried so the investment computation can reference the
	// prior firm-year; it is persisted for reproducibility.
	TotalAssets *float64 `db:"total_assets" csv:"total_assets"`
}
