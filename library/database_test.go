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
package library

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factor-lab/fmdata/data"
)

func TestTableName(t *testing.T) {
	dr, err := data.NewDateRangeFromStrings("1963-01-01", "2023-12-31")
	require.NoError(t, err)

	assert.Equal(t, "assembled_panel_1963_01_01_2023_12_31", TableName(AssembledPanelTable, dr))
	assert.Equal(t, "fundamentals_1963_01_01_2023_12_31", TableName(FundamentalsTable, dr))
}

func TestSaveEmptyDataset(t *testing.T) {
	dr, err := data.NewDateRangeFromStrings("1963-01-01", "2023-12-31")
	require.NoError(t, err)

	// an empty save must fail before touching the database
	myLibrary := &Library{}
	err = myLibrary.SaveFundamentals(context.Background(), dr, nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestWrapMissingTable(t *testing.T) {
	dr, err := data.NewDateRangeFromStrings("1963-01-01", "2023-12-31")
	require.NoError(t, err)

	missing := fmt.Errorf("scan: %w", &pgconn.PgError{Code: "42P01"})
	wrapped := wrapMissingTable(missing, dr)
	assert.ErrorIs(t, wrapped, ErrNoData)
	assert.Contains(t, wrapped.Error(), "1963-01-01")

	// unrelated database failures pass through untouched
	plain := errors.New("connection refused")
	assert.Equal(t, plain, wrapMissingTable(plain, dr))
}
