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
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/factor-lab/fmdata/data"
	"github.com/factor-lab/fmdata/library"
	"github.com/factor-lab/fmdata/regression"
)

var (
	regressStart    string
	regressEnd      string
	regressWeighted bool
	regressSize     string
	regressDropTail float64
)

// regressCmd represents the regress command
var regressCmd = &cobra.Command{
	Use:   "regress",
	Short: "Estimate factor risk premia from a stored panel",
	Long: `Regress runs Fama-MacBeth cross-sectional regressions against the
assembled panel stored for the given date range and prints the estimated
monthly risk premia with Newey-West t-statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dr, err := data.NewDateRangeFromStrings(regressStart, regressEnd)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		size, err := parseSizeCategory(regressSize)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid size category")
		}

		myLibrary := &library.Library{DBUrl: viper.GetString("DBUrl")}
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to research database")
		}
		defer myLibrary.Close()

		panel, err := myLibrary.LoadAssembledPanel(ctx, dr)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load assembled panel")
		}

		estimates, err := regression.Run(panel, regression.Options{
			Weighted:           regressWeighted,
			DropTailPercentile: regressDropTail,
			Size:               size,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("estimating risk premia failed")
		}

		rendered, err := glamour.Render(premiaMarkdown(dr, estimates), "dark")
		if err != nil {
			log.Fatal().Err(err).Msg("could not render results")
		}
		fmt.Println(rendered)
	},
}

func parseSizeCategory(value string) (data.SizeCategory, error) {
	switch data.SizeCategory(value) {
	case "", data.LargeCap, data.SmallCap, data.MicroCap:
		return data.SizeCategory(value), nil
	default:
		return "", fmt.Errorf("unknown size category %q (use Large, Small or Micro)", value)
	}
}

func premiaMarkdown(dr data.DateRange, estimates []regression.PremiumEstimate) string {
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# Risk Premia %s - %s\n\n",
		dr.Start.Format("Jan 2006"), dr.End.Format("Jan 2006")))
	builder.WriteString("| Factor | Risk Premium (%) | t-stat |\n")
	builder.WriteString("| --- | ---: | ---: |\n")

	for _, est := range estimates {
		builder.WriteString(fmt.Sprintf("| %s | %.3f | %.3f |\n",
			est.Factor, est.RiskPremium, est.TStat))
	}

	return builder.String()
}

func init() {
	rootCmd.AddCommand(regressCmd)

	regressCmd.Flags().StringVar(&regressStart, "start", "1963-01-01", "first date of the stored range (YYYY-MM-DD)")
	regressCmd.Flags().StringVar(&regressEnd, "end", "2023-12-31", "last date of the stored range (YYYY-MM-DD)")
	regressCmd.Flags().BoolVar(&regressWeighted, "weighted", false, "weight cross-sections by market cap")
	regressCmd.Flags().StringVar(&regressSize, "size", "", "restrict to one size category (Large, Small or Micro)")
	regressCmd.Flags().Float64Var(&regressDropTail, "dropTail", 0, "drop periods below this percentile of cross-section size (must be < 0.25)")
}
