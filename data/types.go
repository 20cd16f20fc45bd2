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

// ExchangeCategory is the normalized listing exchange of a security
type ExchangeCategory string

const (
	NYSE          ExchangeCategory = "NYSE"
	AMEX          ExchangeCategory = "AMEX"
	NASDAQ        ExchangeCategory = "NASDAQ"
	OtherExchange ExchangeCategory = "Other"
)

// SizeCategory classifies a security by market capitalization relative to the
// NYSE 30th/70th percentile breakpoints of its period
type SizeCategory string

const (
	LargeCap SizeCategory = "Large"
	SmallCap SizeCategory = "Small"
	MicroCap SizeCategory = "Micro"
)

// IndustryCategory is the sector assigned from a security's SIC code
type IndustryCategory string

const (
	Agriculture     IndustryCategory = "Agriculture"
	Mining          IndustryCategory = "Mining"
	Construction    IndustryCategory = "Construction"
	Manufacturing   IndustryCategory = "Manufacturing"
	Transportation  IndustryCategory = "Transportation"
	Utilities       IndustryCategory = "Utilities"
	Wholesale       IndustryCategory = "Wholesale"
	Retail          IndustryCategory = "Retail"
	Finance         IndustryCategory = "Finance"
	Services        IndustryCategory = "Services"
	PublicSector    IndustryCategory = "Public"
	MissingIndustry IndustryCategory = "Missing"
)

// ExchangeFromCode maps a single-character primary exchange code to a
// normalized exchange category. Anything other than N, A or Q is grouped under
// Other.
func ExchangeFromCode(code string) ExchangeCategory {
	switch code {
	case "N":
		return NYSE
	case "A":
		return AMEX
	case "Q":
		return NASDAQ
	default:
		return OtherExchange
	}
}

// IndustryFromSIC maps a numeric SIC code to one of eleven named sectors.
// Codes outside every documented range (including 0) map to Missing.
func IndustryFromSIC(sic int) IndustryCategory {
	switch {
	case sic >= 1 && sic <= 999:
		return Agriculture
	case sic >= 1000 && sic <= 1499:
		return Mining
	case sic >= 1500 && sic <= 1799:
		return Construction
	case sic >= 2000 && sic <= 3999:
		return Manufacturing
	case sic >= 4000 && sic <= 4899:
		return Transportation
	case sic >= 4900 && sic <= 4999:
		return Utilities
	case sic >= 5000 && sic <= 5199:
		return Wholesale
	case sic >= 5200 && sic <= 5999:
		return Retail
	case sic >= 6000 && sic <= 6799:
		return Finance
	case sic >= 7000 && sic <= 8999:
		return Services
	case sic >= 9000 && sic <= 9999:
		return PublicSector
	default:
		return MissingIndustry
	}
}
