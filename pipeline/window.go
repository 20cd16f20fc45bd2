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

// Package pipeline contains the pure transformations that turn raw warehouse
// records into the regression-ready panel. Every function maps input slices to
// new output slices; nothing mutates its arguments. Grouped computations
// follow a fixed discipline: partition by key, sort each partition by time,
// apply a stateless per-partition function, and concatenate partitions in
// canonical key order so results never depend on processing order.
package pipeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// coalesce returns the first non-nil value, or nil when every argument is nil
func coalesce(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// coalesceOrZero returns the first non-nil value, defaulting to zero
func coalesceOrZero(values ...*float64) float64 {
	if v := coalesce(values...); v != nil {
		return *v
	}
	return 0
}

// addPtr adds two nullable values; nil if either operand is nil
func addPtr(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	sum := *a + *b
	return &sum
}

// subPtr subtracts two nullable values; nil if either operand is nil
func subPtr(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	diff := *a - *b
	return &diff
}

func ptr(v float64) *float64 {
	return &v
}

// forwardFill carries the last defined value forward through a time-ordered
// sequence. Leading nils remain nil until the first defined value appears.
func forwardFill(values []*float64) []*float64 {
	filled := make([]*float64, len(values))
	var last *float64
	for i, v := range values {
		if v != nil {
			last = v
		}
		filled[i] = last
	}
	return filled
}

// compound returns the compounded growth of a return sequence:
// product(1+r) - 1
func compound(returns []float64) float64 {
	product := 1.0
	for _, r := range returns {
		product *= 1 + r
	}
	return product - 1
}

// rollingStd computes, for each index i of a time-ordered series, the sample
// standard deviation of the window of observations ending at index i-1 (the
// series is shifted by one before windowing). The window holds at most
// `window` observations and the result is nil until at least `minPeriods`
// observations are available.
func rollingStd(values []float64, window, minPeriods int) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		trailing := values[lo:i]
		if len(trailing) < minPeriods {
			continue
		}
		out[i] = ptr(stat.StdDev(trailing, nil))
	}
	return out
}

// quantile returns the empirical p-quantile of values. The input is copied and
// sorted; NaN inputs are not expected this deep in the pipeline.
func quantile(p float64, values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
