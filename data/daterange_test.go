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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateRange(t *testing.T) {
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)

	dr, err := NewDateRange(start, end)
	require.NoError(t, err)
	assert.Equal(t, start, dr.Start)
	assert.Equal(t, end, dr.End)

	// start == end is a valid single-day range
	dr, err = NewDateRange(start, start)
	require.NoError(t, err)
	assert.Equal(t, dr.Start, dr.End)

	_, err = NewDateRange(end, start)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNewDateRangeFromStrings(t *testing.T) {
	dr, err := NewDateRangeFromStrings("1963-01-01", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, 1963, dr.Start.Year())
	assert.Equal(t, time.December, dr.End.Month())

	_, err = NewDateRangeFromStrings("01/01/1963", "2023-12-31")
	assert.ErrorIs(t, err, ErrMalformedDate)
	assert.Contains(t, err.Error(), "start")

	_, err = NewDateRangeFromStrings("1963-01-01", "not-a-date")
	assert.ErrorIs(t, err, ErrMalformedDate)
	assert.Contains(t, err.Error(), "end")
}

func TestDateRangeContains(t *testing.T) {
	dr, err := NewDateRangeFromStrings("2020-01-01", "2020-12-31")
	require.NoError(t, err)

	assert.True(t, dr.Contains(dr.Start))
	assert.True(t, dr.Contains(dr.End))
	assert.True(t, dr.Contains(time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, dr.Contains(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, dr.Contains(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateRangeTableSuffix(t *testing.T) {
	dr, err := NewDateRangeFromStrings("1963-01-01", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "1963_01_01_2023_12_31", dr.TableSuffix())
}

func TestAddMonths(t *testing.T) {
	jan := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)

	// shift truncates to the first of the target month, never spilling into
	// the following month the way AddDate would for Jan 31 + 1 month
	assert.Equal(t, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), AddMonths(jan, 1))
	assert.Equal(t, time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC), AddMonths(jan, 6))
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), AddMonths(jan, 12))
	assert.Equal(t, time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC), AddMonths(jan, -1))
}

func TestMonthStart(t *testing.T) {
	assert.Equal(t,
		time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		MonthStart(time.Date(2020, 6, 30, 15, 4, 5, 0, time.UTC)))
}
