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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/factor-lab/fmdata/data"
)

const (
	fredObservationsURL = "https://api.stlouisfed.org/fred/series/observations"

	// DefaultPriceIndexSeries is the non-seasonally-adjusted consumer price
	// index for all urban consumers.
	DefaultPriceIndexSeries = "CPIAUCNS"
)

// ErrEmptySeries reports a FRED series with no parseable observations.
var ErrEmptySeries = errors.New("series has no observations")

// Fred retrieves monthly price-level series from the Federal Reserve Economic
// Data API. It implements PriceIndexSource.
type Fred struct {
	APIKey string
	Series string

	url     string
	client  *resty.Client
	limiter *rate.Limiter
}

// NewFred constructs a FRED source for the given series; an empty series name
// selects the default CPI series.
func NewFred(apiKey, series string) *Fred {
	if series == "" {
		series = DefaultPriceIndexSeries
	}

	client := resty.New()
	client.JSONUnmarshal = json.Unmarshal

	return &Fred{
		APIKey:  apiKey,
		Series:  series,
		url:     fredObservationsURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// PriceIndex retrieves the configured series, truncated to month starts and
// filtered to the requested range. With normalize set, every value is divided
// by the latest published observation so the most recent period equals 1;
// normalization happens before range filtering so the scale does not depend on
// the range.
func (fred *Fred) PriceIndex(ctx context.Context, dr data.DateRange, normalize bool) ([]data.PriceIndexObservation, error) {
	if err := fred.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload fredResponse
	resp, err := fred.client.R().
		SetContext(ctx).
		SetQueryParam("api_key", fred.APIKey).
		SetQueryParam("file_type", "json").
		SetQueryParam("series_id", fred.Series).
		SetQueryParam("sort_order", "asc").
		SetResult(&payload).
		Get(fred.url)
	if err != nil {
		return nil, fmt.Errorf("download series %s: %w", fred.Series, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("download series %s: status %d", fred.Series, resp.StatusCode())
	}

	observations := make([]data.PriceIndexObservation, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		// the API reports missing observations as "."
		if obs.Value == "." {
			continue
		}

		period, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			log.Warn().Err(err).Str("DateStr", obs.Date).Str("Series", fred.Series).
				Msg("skipping observation with unparseable date")
			continue
		}

		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			log.Warn().Err(err).Str("ValueStr", obs.Value).Str("Series", fred.Series).
				Msg("skipping observation with unparseable value")
			continue
		}

		observations = append(observations, data.PriceIndexObservation{
			Period: data.MonthStart(period),
			Value:  value,
		})
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeries, fred.Series)
	}

	if normalize {
		final := observations[len(observations)-1].Value
		for i := range observations {
			observations[i].Value /= final
		}
	}

	inRange := observations[:0]
	for _, obs := range observations {
		if dr.Contains(obs.Period) {
			inRange = append(inRange, obs)
		}
	}

	log.Info().Int("NumObservations", len(inRange)).Str("Series", fred.Series).
		Msg("fetched price index observations")
	return inRange, nil
}

type fredResponse struct {
	Count        int               `json:"count"`
	Observations []fredObservation `json:"observations"`
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}
