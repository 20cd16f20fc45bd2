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
package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	a := ptr(1.5)
	b := ptr(2.5)

	assert.Equal(t, a, coalesce(a, b))
	assert.Equal(t, b, coalesce(nil, b))
	assert.Nil(t, coalesce(nil, nil))

	assert.InDelta(t, 2.5, coalesceOrZero(nil, b), 1e-12)
	assert.Zero(t, coalesceOrZero(nil, nil))
}

func TestPointerArithmetic(t *testing.T) {
	sum := addPtr(ptr(1), ptr(2))
	require.NotNil(t, sum)
	assert.InDelta(t, 3, *sum, 1e-12)
	assert.Nil(t, addPtr(nil, ptr(2)))

	diff := subPtr(ptr(5), ptr(2))
	require.NotNil(t, diff)
	assert.InDelta(t, 3, *diff, 1e-12)
	assert.Nil(t, subPtr(ptr(5), nil))
}

func TestForwardFill(t *testing.T) {
	filled := forwardFill([]*float64{nil, ptr(1), nil, nil, ptr(2), nil})

	assert.Nil(t, filled[0])
	require.NotNil(t, filled[2])
	assert.InDelta(t, 1, *filled[2], 1e-12)
	assert.InDelta(t, 1, *filled[3], 1e-12)
	assert.InDelta(t, 2, *filled[5], 1e-12)
}

func TestCompound(t *testing.T) {
	assert.InDelta(t, 0, compound(nil), 1e-12)
	assert.InDelta(t, 0.1, compound([]float64{0.1}), 1e-12)
	// (1.1)(0.9) - 1
	assert.InDelta(t, -0.01, compound([]float64{0.1, -0.1}), 1e-12)
}

func TestRollingStd(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	out := rollingStd(values, 3, 2)

	// index i sees the window ending at i-1
	assert.Nil(t, out[0])
	assert.Nil(t, out[1])

	require.NotNil(t, out[2])
	assert.InDelta(t, math.Sqrt2/2, *out[2], 1e-12) // std(1, 2)

	require.NotNil(t, out[5])
	assert.InDelta(t, 1, *out[5], 1e-12) // std(3, 4, 5)
}

func TestQuantile(t *testing.T) {
	values := []float64{100, 10, 90, 20, 80, 30, 70, 40, 60, 50}

	assert.InDelta(t, 30, quantile(0.30, values), 1e-12)
	assert.InDelta(t, 70, quantile(0.70, values), 1e-12)
	assert.True(t, math.IsNaN(quantile(0.5, nil)))
}
