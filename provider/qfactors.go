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
package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/factor-lab/fmdata/data"
)

// DefaultQFactorsURL is the published monthly q5 factor file.
const DefaultQFactorsURL = "https://global-q.org/uploads/1/2/2/6/122679606/q5_factors_monthly_2023.csv"

// QFactors downloads the monthly q-factor model returns. Published values are
// percentages; observations are converted to decimal fractions.
type QFactors struct {
	URL string

	// InsecureSkipVerify disables TLS certificate verification for this
	// source only; the publisher's certificate chain is intermittently
	// misconfigured.
	InsecureSkipVerify bool
}

type qFactorRow struct {
	Year  int     `csv:"year"`
	Month int     `csv:"month"`
	ME    float64 `csv:"R_ME"`
	IA    float64 `csv:"R_IA"`
	ROE   float64 `csv:"R_ROE"`
	EG    float64 `csv:"R_EG"`
}

// Factors downloads and parses the q-factor series, keeping observations
// inside the requested range.
func (q *QFactors) Factors(ctx context.Context, dr data.DateRange) ([]data.QFactorObservation, error) {
	url := q.URL
	if url == "" {
		url = DefaultQFactorsURL
	}

	client := resty.New()
	if q.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402
	}

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download q factors: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("download q factors: status %d", resp.StatusCode())
	}

	var rows []qFactorRow
	if err := gocsv.UnmarshalString(string(resp.Body()), &rows); err != nil {
		return nil, fmt.Errorf("parse q factors: %w", err)
	}

	observations := make([]data.QFactorObservation, 0, len(rows))
	for _, row := range rows {
		period := time.Date(row.Year, time.Month(row.Month), 1, 0, 0, 0, 0, time.UTC)
		if !dr.Contains(period) {
			continue
		}
		observations = append(observations, data.QFactorObservation{
			Period: period,
			ME:     row.ME / 100,
			IA:     row.IA / 100,
			ROE:    row.ROE / 100,
			EG:     row.EG / 100,
		})
	}

	log.Info().Int("NumObservations", len(observations)).Msg("fetched q-factor observations")
	return observations, nil
}
