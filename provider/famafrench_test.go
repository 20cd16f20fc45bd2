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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factor-lab/fmdata/data"
)

const ff3Contents = `This file was created by CMPT_ME_BEME_RETS using the 202312 CRSP database.
The 1-month TBill return is from Ibbotson and Associates, Inc.

,Mkt-RF,SMB,HML,RF
192607,  2.96, -2.56, -2.43,  0.22
192608,  2.64, -1.17,  3.82,  0.25
192609,  0.36, -1.40,  0.13,  0.23

 Annual Factors: January-December
,Mkt-RF,SMB,HML,RF
1927, 29.47, -2.46, -3.75,  3.12
`

func zipArchive(t *testing.T, name, contents string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestExtractFactorCSV(t *testing.T) {
	payload, err := extractFactorCSV(zipArchive(t, "F-F_Research_Data_Factors.CSV", ff3Contents))
	require.NoError(t, err)

	// only the monthly section survives, with a named date column
	assert.Equal(t, "Date,Mkt-RF,SMB,HML,RF\n"+
		"192607,  2.96, -2.56, -2.43,  0.22\n"+
		"192608,  2.64, -1.17,  3.82,  0.25\n"+
		"192609,  0.36, -1.40,  0.13,  0.23\n", payload)
}

func TestExtractFactorCSVRejectsGarbage(t *testing.T) {
	_, err := extractFactorCSV([]byte("not a zip archive"))
	assert.ErrorIs(t, err, ErrMalformedFactorFile)

	_, err = extractFactorCSV(zipArchive(t, "empty.CSV", "no header here\n"))
	assert.ErrorIs(t, err, ErrMalformedFactorFile)
}

func TestFamaFrenchFactors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write(zipArchive(t, "F-F_Research_Data_Factors.CSV", ff3Contents))
		assert.NoError(t, err)
	}))
	defer server.Close()

	ff, err := NewFamaFrench(3, Monthly)
	require.NoError(t, err)
	ff.client.SetBaseURL(server.URL + "/")

	dr, err := data.NewDateRangeFromStrings("1926-08-01", "1926-09-30")
	require.NoError(t, err)

	observations, err := ff.Factors(context.Background(), dr)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, time.Date(1926, time.August, 1, 0, 0, 0, 0, time.UTC), observations[0].Period)
	assert.InDelta(t, 0.0264, observations[0].MktExcessReturn, 1e-12)
	assert.InDelta(t, -0.0117, observations[0].SMB, 1e-12)
	assert.InDelta(t, 0.0382, observations[0].HML, 1e-12)
	assert.InDelta(t, 0.0025, observations[0].RF, 1e-12)
	assert.Nil(t, observations[0].RMW)
	assert.Nil(t, observations[0].CMA)
}

func TestNewFamaFrenchValidation(t *testing.T) {
	_, err := NewFamaFrench(4, Monthly)
	assert.ErrorIs(t, err, ErrUnsupportedFactorSet)

	_, err = NewFamaFrench(3, Frequency("weekly"))
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)
}
