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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factor-lab/fmdata/data"
)

const fredPayload = `{
	"count": 4,
	"observations": [
		{"date": "2020-01-01", "value": "100.0"},
		{"date": "2020-02-01", "value": "."},
		{"date": "2020-03-01", "value": "150.0"},
		{"date": "2020-04-01", "value": "200.0"}
	]
}`

func newTestFred(t *testing.T) (*Fred, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, DefaultPriceIndexSeries, r.URL.Query().Get("series_id"))
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(fredPayload))
		assert.NoError(t, err)
	}))

	fred := NewFred("test-key", "")
	fred.url = server.URL
	return fred, server
}

func TestFredPriceIndex(t *testing.T) {
	fred, server := newTestFred(t)
	defer server.Close()

	dr, err := data.NewDateRangeFromStrings("2020-01-01", "2020-12-31")
	require.NoError(t, err)

	observations, err := fred.PriceIndex(context.Background(), dr, false)
	require.NoError(t, err)

	// the missing February observation is skipped, not zero-filled
	require.Len(t, observations, 3)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), observations[0].Period)
	assert.InDelta(t, 100, observations[0].Value, 1e-12)
	assert.InDelta(t, 200, observations[2].Value, 1e-12)
}

func TestFredPriceIndexNormalized(t *testing.T) {
	fred, server := newTestFred(t)
	defer server.Close()

	// normalization uses the final published observation even when the range
	// excludes it
	dr, err := data.NewDateRangeFromStrings("2020-01-01", "2020-03-31")
	require.NoError(t, err)

	observations, err := fred.PriceIndex(context.Background(), dr, true)
	require.NoError(t, err)

	require.Len(t, observations, 2)
	assert.InDelta(t, 0.5, observations[0].Value, 1e-12)
	assert.InDelta(t, 0.75, observations[1].Value, 1e-12)
}
