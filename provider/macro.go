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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/factor-lab/fmdata/data"
)

// DefaultMacroPredictorsURL is the published Welch-Goyal predictor workbook,
// exported as CSV.
const DefaultMacroPredictorsURL = "https://docs.google.com/spreadsheets/d/1g4LOaRj4TvwJr9RIaA_nwrXXWTOy46bP/export?format=csv"

// MacroPredictors downloads the monthly macroeconomic predictor workbook and
// derives the standard valuation-ratio and spread series from it. Source rows
// missing any required component are dropped.
type MacroPredictors struct {
	URL string

	// InsecureSkipVerify disables TLS certificate verification for this
	// source only.
	InsecureSkipVerify bool
}

// commaFloat parses numbers that use comma thousands separators, as the index
// level column does.
type commaFloat float64

func (f *commaFloat) UnmarshalCSV(csv string) error {
	csv = strings.TrimSpace(strings.ReplaceAll(csv, ",", ""))
	if csv == "" || csv == "NaN" {
		*f = commaFloat(math.NaN())
		return nil
	}

	v, err := strconv.ParseFloat(csv, 64)
	if err != nil {
		return err
	}
	*f = commaFloat(v)
	return nil
}

type macroRow struct {
	YYYYMM    string      `csv:"yyyymm"`
	Index     commaFloat  `csv:"Index"`
	Dividends *commaFloat `csv:"D12"`
	Earnings  *commaFloat `csv:"E12"`
	BM        *commaFloat `csv:"b/m"`
	TBL       *commaFloat `csv:"tbl"`
	AAA       *commaFloat `csv:"AAA"`
	BAA       *commaFloat `csv:"BAA"`
	LTY       *commaFloat `csv:"lty"`
	NTIS      *commaFloat `csv:"ntis"`
	INFL      *commaFloat `csv:"infl"`
	LTR       *commaFloat `csv:"ltr"`
	SVAR      *commaFloat `csv:"svar"`
}

// Predictors downloads and derives the monthly predictor records, keeping
// periods inside the requested range. The dividend yield uses the prior
// month's index level, so the first parsed row never yields a record.
func (mp *MacroPredictors) Predictors(ctx context.Context, dr data.DateRange) ([]data.MacroPredictorRecord, error) {
	url := mp.URL
	if url == "" {
		url = DefaultMacroPredictorsURL
	}

	client := resty.New()
	if mp.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402
	}

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download macro predictors: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("download macro predictors: status %d", resp.StatusCode())
	}

	var rows []macroRow
	if err := gocsv.UnmarshalString(string(resp.Body()), &rows); err != nil {
		return nil, fmt.Errorf("parse macro predictors: %w", err)
	}

	records := make([]data.MacroPredictorRecord, 0, len(rows))
	priorIndex := math.NaN()
	for _, row := range rows {
		period, err := time.Parse("200601", row.YYYYMM)
		if err != nil {
			log.Warn().Err(err).Str("DateStr", row.YYYYMM).
				Msg("skipping predictor row with unparseable date")
			continue
		}

		lagIndex := priorIndex
		priorIndex = float64(row.Index)

		if !dr.Contains(period) {
			continue
		}
		if !complete(row) || math.IsNaN(lagIndex) {
			continue
		}

		index := float64(row.Index)
		d12 := float64(*row.Dividends)
		e12 := float64(*row.Earnings)
		tbl := float64(*row.TBL)
		lty := float64(*row.LTY)

		records = append(records, data.MacroPredictorRecord{
			Period: period,
			DP:     math.Log(d12) - math.Log(index),
			DY:     math.Log(d12) - math.Log(lagIndex),
			EP:     math.Log(e12) - math.Log(index),
			DE:     math.Log(d12) - math.Log(e12),
			SVAR:   float64(*row.SVAR),
			BM:     float64(*row.BM),
			NTIS:   float64(*row.NTIS),
			TBL:    tbl,
			LTY:    lty,
			LTR:    float64(*row.LTR),
			TMS:    lty - tbl,
			DFY:    float64(*row.BAA) - float64(*row.AAA),
			INFL:   float64(*row.INFL),
		})
	}

	log.Info().Int("NumRecords", len(records)).Msg("fetched macro predictor records")
	return records, nil
}

func complete(row macroRow) bool {
	if math.IsNaN(float64(row.Index)) {
		return false
	}
	for _, f := range []*commaFloat{
		row.Dividends, row.Earnings, row.BM, row.TBL, row.AAA, row.BAA,
		row.LTY, row.NTIS, row.INFL, row.LTR, row.SVAR,
	} {
		if f == nil || math.IsNaN(float64(*f)) {
			return false
		}
	}
	return true
}
