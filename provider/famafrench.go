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
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/factor-lab/fmdata/data"
)

const famaFrenchBaseURL = "https://mba.tuck.dartmouth.edu/pages/faculty/ken.french/ftp/"

// Frequency selects the observation interval of a factor series.
type Frequency string

const (
	Monthly Frequency = "monthly"
	Daily   Frequency = "daily"
)

var (
	// ErrUnsupportedFactorSet reports a factor model version other than 3 or 5.
	ErrUnsupportedFactorSet = errors.New("factor set must be the 3- or 5-factor model")

	// ErrUnsupportedFrequency reports an unknown observation frequency.
	ErrUnsupportedFrequency = errors.New("frequency must be monthly or daily")

	// ErrMalformedFactorFile reports a factor archive whose CSV payload could
	// not be located or parsed.
	ErrMalformedFactorFile = errors.New("malformed factor file")
)

var famaFrenchArchives = map[int]map[Frequency]string{
	3: {
		Monthly: "F-F_Research_Data_Factors_CSV.zip",
		Daily:   "F-F_Research_Data_Factors_daily_CSV.zip",
	},
	5: {
		Monthly: "F-F_Research_Data_5_Factors_2x3_CSV.zip",
		Daily:   "F-F_Research_Data_5_Factors_2x3_daily_CSV.zip",
	},
}

// FamaFrench downloads published factor return archives. The published values
// are percentages; observations are converted to decimal fractions.
type FamaFrench struct {
	Version   int
	Frequency Frequency

	client  *resty.Client
	limiter *rate.Limiter
}

// NewFamaFrench constructs a factor source for the 3- or 5-factor model at
// monthly or daily frequency.
func NewFamaFrench(version int, frequency Frequency) (*FamaFrench, error) {
	if _, ok := famaFrenchArchives[version]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFactorSet, version)
	}
	if frequency != Monthly && frequency != Daily {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFrequency, frequency)
	}

	return &FamaFrench{
		Version:   version,
		Frequency: frequency,
		client:    resty.New().SetBaseURL(famaFrenchBaseURL),
		limiter:   rate.NewLimiter(rate.Every(5*time.Second), 1),
	}, nil
}

type ff3Row struct {
	Date  string  `csv:"Date"`
	MktRF float64 `csv:"Mkt-RF"`
	SMB   float64 `csv:"SMB"`
	HML   float64 `csv:"HML"`
	RF    float64 `csv:"RF"`
}

type ff5Row struct {
	Date  string  `csv:"Date"`
	MktRF float64 `csv:"Mkt-RF"`
	SMB   float64 `csv:"SMB"`
	HML   float64 `csv:"HML"`
	RMW   float64 `csv:"RMW"`
	CMA   float64 `csv:"CMA"`
	RF    float64 `csv:"RF"`
}

// Factors downloads and parses the configured factor series, keeping
// observations inside the requested range.
func (ff *FamaFrench) Factors(ctx context.Context, dr data.DateRange) ([]data.FactorObservation, error) {
	if err := ff.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	archive := famaFrenchArchives[ff.Version][ff.Frequency]
	resp, err := ff.client.R().SetContext(ctx).Get(archive)
	if err != nil {
		return nil, fmt.Errorf("download factor archive %s: %w", archive, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("download factor archive %s: status %d", archive, resp.StatusCode())
	}

	payload, err := extractFactorCSV(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", archive, err)
	}

	dateLayout := "200601"
	if ff.Frequency == Daily {
		dateLayout = "20060102"
	}

	var observations []data.FactorObservation
	if ff.Version == 3 {
		var rows []ff3Row
		if err := unmarshalFactorRows(payload, &rows); err != nil {
			return nil, fmt.Errorf("%s: %w", archive, err)
		}
		for _, row := range rows {
			period, err := time.Parse(dateLayout, row.Date)
			if err != nil {
				continue
			}
			if !dr.Contains(period) {
				continue
			}
			observations = append(observations, data.FactorObservation{
				Period:          period,
				MktExcessReturn: row.MktRF / 100,
				SMB:             row.SMB / 100,
				HML:             row.HML / 100,
				RF:              row.RF / 100,
			})
		}
	} else {
		var rows []ff5Row
		if err := unmarshalFactorRows(payload, &rows); err != nil {
			return nil, fmt.Errorf("%s: %w", archive, err)
		}
		for _, row := range rows {
			period, err := time.Parse(dateLayout, row.Date)
			if err != nil {
				continue
			}
			if !dr.Contains(period) {
				continue
			}
			rmw := row.RMW / 100
			cma := row.CMA / 100
			observations = append(observations, data.FactorObservation{
				Period:          period,
				MktExcessReturn: row.MktRF / 100,
				SMB:             row.SMB / 100,
				HML:             row.HML / 100,
				RF:              row.RF / 100,
				RMW:             &rmw,
				CMA:             &cma,
			})
		}
	}

	log.Info().Int("NumObservations", len(observations)).Int("Version", ff.Version).
		Str("Frequency", string(ff.Frequency)).Msg("fetched factor observations")
	return observations, nil
}

// extractFactorCSV unpacks the single CSV inside a factor archive and slices
// out the first data section: the header row naming Mkt-RF, re-labelled with a
// Date column, plus every following row that starts with a numeric date. The
// annual summary sections further down the file are excluded.
func extractFactorCSV(body []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedFactorFile, err)
	}
	if len(archive.File) == 0 {
		return "", fmt.Errorf("%w: empty archive", ErrMalformedFactorFile)
	}

	rc, err := archive.File[0].Open()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedFactorFile, err)
	}
	defer rc.Close()

	contents, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedFactorFile, err)
	}

	lines := strings.Split(strings.ReplaceAll(string(contents), "\r\n", "\n"), "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.Contains(line, "Mkt-RF") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return "", fmt.Errorf("%w: header row not found", ErrMalformedFactorFile)
	}

	// the published header has an unnamed first column for the date
	header := strings.TrimSpace(lines[headerIdx])
	if !strings.HasPrefix(header, ",") {
		header = "," + header
	}

	var sb strings.Builder
	sb.WriteString("Date")
	sb.WriteString(header)
	sb.WriteString("\n")

	for _, line := range lines[headerIdx+1:] {
		date, _, found := strings.Cut(line, ",")
		if !found || !isNumeric(strings.TrimSpace(date)) {
			break
		}
		sb.WriteString(strings.TrimSpace(line))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func unmarshalFactorRows(payload string, out any) error {
	reader := csv.NewReader(strings.NewReader(payload))
	reader.TrimLeadingSpace = true
	return gocsv.UnmarshalCSV(reader, out)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
