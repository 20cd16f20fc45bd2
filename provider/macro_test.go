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
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factor-lab/fmdata/data"
)

const macroPayload = `yyyymm,Index,D12,E12,b/m,tbl,AAA,BAA,lty,ntis,Rfree,infl,ltr,corpr,svar,csp
202001,"3,225.52",58.24,139.47,0.28,0.0152,0.0294,0.0361,0.0221,0.01,0.0013,0.002,0.031,0.025,0.0012,
202002,"2,954.22",58.50,139.00,0.30,0.0151,0.0293,0.0372,0.0197,0.011,0.0012,0.001,0.028,0.020,0.0030,
202003,"2,584.59",58.10,,0.35,0.0029,0.0305,0.0430,0.0131,0.012,0.0002,-0.003,0.042,0.010,0.0210,
`

func TestCommaFloatUnmarshal(t *testing.T) {
	var f commaFloat
	require.NoError(t, f.UnmarshalCSV("3,225.52"))
	assert.InDelta(t, 3225.52, float64(f), 1e-9)

	require.NoError(t, f.UnmarshalCSV(""))
	assert.True(t, math.IsNaN(float64(f)))

	require.NoError(t, f.UnmarshalCSV("NaN"))
	assert.True(t, math.IsNaN(float64(f)))

	assert.Error(t, f.UnmarshalCSV("abc"))
}

func TestMacroPredictors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(macroPayload))
		assert.NoError(t, err)
	}))
	defer server.Close()

	mp := &MacroPredictors{URL: server.URL}
	dr, err := data.NewDateRangeFromStrings("2020-01-01", "2020-12-31")
	require.NoError(t, err)

	records, err := mp.Predictors(context.Background(), dr)
	require.NoError(t, err)

	// January has no lagged index for the dividend yield and March is missing
	// earnings, so only February survives
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC), rec.Period)

	assert.InDelta(t, math.Log(58.50)-math.Log(2954.22), rec.DP, 1e-9)
	assert.InDelta(t, math.Log(58.50)-math.Log(3225.52), rec.DY, 1e-9)
	assert.InDelta(t, math.Log(139.00)-math.Log(2954.22), rec.EP, 1e-9)
	assert.InDelta(t, math.Log(58.50)-math.Log(139.00), rec.DE, 1e-9)
	assert.InDelta(t, 0.0197-0.0151, rec.TMS, 1e-9)
	assert.InDelta(t, 0.0372-0.0293, rec.DFY, 1e-9)
	assert.InDelta(t, 0.0030, rec.SVAR, 1e-9)
	assert.InDelta(t, 0.001, rec.INFL, 1e-9)
}
