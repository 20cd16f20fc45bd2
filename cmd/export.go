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
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/factor-lab/fmdata/data"
	"github.com/factor-lab/fmdata/library"
)

var (
	exportStart string
	exportEnd   string
	exportTable string
	exportOut   string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored dataset to CSV",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dr, err := data.NewDateRangeFromStrings(exportStart, exportEnd)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		myLibrary := &library.Library{DBUrl: viper.GetString("DBUrl")}
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to research database")
		}
		defer myLibrary.Close()

		var dataset any
		switch exportTable {
		case library.AssembledPanelTable:
			dataset, err = myLibrary.LoadAssembledPanel(ctx, dr)
		case library.FundamentalsTable:
			dataset, err = myLibrary.LoadFundamentals(ctx, dr)
		case library.SecurityPanelTable:
			dataset, err = myLibrary.LoadSecurityPanel(ctx, dr)
		default:
			log.Fatal().Str("Table", exportTable).Msgf("unknown table (use %s, %s or %s)",
				library.AssembledPanelTable, library.FundamentalsTable, library.SecurityPanelTable)
		}
		if err != nil {
			log.Fatal().Err(err).Str("Table", exportTable).Msg("could not load dataset")
		}

		out := os.Stdout
		if exportOut != "" {
			out, err = os.Create(exportOut)
			if err != nil {
				log.Fatal().Err(err).Str("FileName", exportOut).Msg("could not create output file")
			}
			defer func() {
				if err := out.Close(); err != nil {
					log.Error().Err(err).Str("FileName", exportOut).Msg("could not close output file")
				}
			}()
		}

		if err := gocsv.Marshal(dataset, out); err != nil {
			log.Fatal().Err(err).Msg("could not write csv")
		}

		if exportOut != "" {
			fmt.Printf("wrote %s\n", exportOut)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportStart, "start", "1963-01-01", "first date of the stored range (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "2023-12-31", "last date of the stored range (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTable, "table", library.AssembledPanelTable, "dataset to export")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
}
