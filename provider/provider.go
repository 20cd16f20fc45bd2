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

// Package provider fetches raw research data from its upstream sources: the
// research warehouse for fundamentals, security prices and links, and public
// HTTP endpoints for factor returns, price indices and macro predictors.
// Providers return raw records; all derivation happens in the pipeline
// package.
package provider

import (
	"context"

	"github.com/factor-lab/fmdata/data"
)

// FundamentalsSource retrieves raw firm-fiscal-period statement records.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, dr data.DateRange) ([]data.FundamentalRecord, error)
}

// SecuritySource retrieves monthly and daily market observations and the
// security-to-entity link table.
type SecuritySource interface {
	MonthlySecurities(ctx context.Context, dr data.DateRange) ([]data.SecurityMonthRecord, error)
	DailySecurities(ctx context.Context, dr data.DateRange) ([]data.DailySecurityRecord, error)
	Links(ctx context.Context) ([]data.LinkRecord, error)
}

// FactorSource retrieves market-wide factor return series.
type FactorSource interface {
	Factors(ctx context.Context, dr data.DateRange) ([]data.FactorObservation, error)
}

// PriceIndexSource retrieves a price-level series such as the CPI.
type PriceIndexSource interface {
	PriceIndex(ctx context.Context, dr data.DateRange, normalize bool) ([]data.PriceIndexObservation, error)
}
