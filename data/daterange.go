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

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

var (
	// ErrInvalidRange indicates that the end of a date range falls before its start
	ErrInvalidRange = errors.New("end date cannot be earlier than start date")

	// ErrMalformedDate indicates that a date string could not be parsed as YYYY-MM-DD
	ErrMalformedDate = errors.New("malformed date")
)

// DateRange is an inclusive start/end pair validated so that Start <= End. All
// downstream fetchers and processors take a DateRange rather than a raw pair of
// dates so the invariant is checked exactly once, at the boundary.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate converts a YYYY-MM-DD string to a UTC time. paramName is included
// in the error so callers can surface which argument was malformed.
func ParseDate(value string, paramName string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must use the YYYY-MM-DD format, got %q", ErrMalformedDate, paramName, value)
	}
	return t.UTC(), nil
}

// NewDateRange validates that end does not fall before start
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: start.UTC(), End: end.UTC()}, nil
}

// NewDateRangeFromStrings parses two YYYY-MM-DD strings and validates them as a range
func NewDateRangeFromStrings(start, end string) (DateRange, error) {
	startDate, err := ParseDate(start, "start")
	if err != nil {
		return DateRange{}, err
	}

	endDate, err := ParseDate(end, "end")
	if err != nil {
		return DateRange{}, err
	}

	return NewDateRange(startDate, endDate)
}

// Contains reports whether t falls within the range (inclusive on both ends)
func (dr DateRange) Contains(t time.Time) bool {
	return !t.Before(dr.Start) && !t.After(dr.End)
}

// TableSuffix returns a string suitable for embedding in a SQL table name that
// uniquely identifies the build range, e.g. 1963_01_01_2023_12_31
func (dr DateRange) TableSuffix() string {
	s := slug.Make(fmt.Sprintf("%s %s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02")))
	return strings.ReplaceAll(s, "-", "_")
}

// MonthStart truncates t to the first day of its month
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts t forward n months and truncates to the start of the
// resulting month. Using the month index directly avoids the end-of-month
// normalization surprises of time.AddDate (e.g. Jan 31 + 1 month).
func AddMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}
