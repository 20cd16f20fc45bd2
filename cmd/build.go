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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/factor-lab/fmdata/data"
	"github.com/factor-lab/fmdata/library"
	"github.com/factor-lab/fmdata/pipeline"
	"github.com/factor-lab/fmdata/provider"
)

var (
	buildStart    string
	buildEnd      string
	buildLag      int
	buildInsecure bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch raw data, derive characteristics and store the panel",
	Long: `Build downloads every raw input for the requested date range, derives
firm-year and security-month characteristics, assembles the regression-ready
panel and stores all datasets in the research database under tables suffixed
with the build range.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		startTime := time.Now()

		dr, err := data.NewDateRangeFromStrings(buildStart, buildEnd)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		myLibrary := &library.Library{DBUrl: viper.GetString("DBUrl")}
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to research database")
		}
		defer myLibrary.Close()

		warehouse := &provider.Warehouse{URL: viper.GetString("WarehouseUrl")}
		if err := warehouse.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to data warehouse")
		}
		defer warehouse.Close()

		ff3Monthly, err := provider.NewFamaFrench(3, provider.Monthly)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create factor source")
		}
		ff3Daily, err := provider.NewFamaFrench(3, provider.Daily)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create factor source")
		}
		ff5Monthly, err := provider.NewFamaFrench(5, provider.Monthly)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create factor source")
		}
		fred := provider.NewFred(viper.GetString("FredApiKey"), viper.GetString("FredSeries"))
		qFactors := &provider.QFactors{InsecureSkipVerify: buildInsecure}
		macro := &provider.MacroPredictors{InsecureSkipVerify: buildInsecure}

		// fetch every raw input concurrently; sources are independent of each
		// other and mostly network-bound
		var (
			rawFundamentals []data.FundamentalRecord
			rawMonthly      []data.SecurityMonthRecord
			rawDaily        []data.DailySecurityRecord
			links           []data.LinkRecord
			factorsMonthly  []data.FactorObservation
			factorsDaily    []data.FactorObservation
			factorsFive     []data.FactorObservation
			priceIndex      []data.PriceIndexObservation
			qObservations   []data.QFactorObservation
			macroRecords    []data.MacroPredictorRecord
		)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			fetchErr error
		)
		fetch := func(name string, fn func() error) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := fn(); err != nil {
					mu.Lock()
					if fetchErr == nil {
						fetchErr = err
					}
					mu.Unlock()
					log.Error().Err(err).Str("Source", name).Msg("fetch failed")
				}
			}()
		}

		fetch("fundamentals", func() (err error) {
			rawFundamentals, err = warehouse.Fundamentals(ctx, dr)
			return
		})
		fetch("monthly securities", func() (err error) {
			rawMonthly, err = warehouse.MonthlySecurities(ctx, dr)
			return
		})
		fetch("daily securities", func() (err error) {
			rawDaily, err = warehouse.DailySecurities(ctx, dr)
			return
		})
		fetch("links", func() (err error) {
			links, err = warehouse.Links(ctx)
			return
		})
		fetch("factors monthly", func() (err error) {
			factorsMonthly, err = ff3Monthly.Factors(ctx, dr)
			return
		})
		fetch("factors daily", func() (err error) {
			factorsDaily, err = ff3Daily.Factors(ctx, dr)
			return
		})
		fetch("factors 5 monthly", func() (err error) {
			factorsFive, err = ff5Monthly.Factors(ctx, dr)
			return
		})
		fetch("price index", func() (err error) {
			priceIndex, err = fred.PriceIndex(ctx, dr, true)
			return
		})
		fetch("q factors", func() (err error) {
			qObservations, err = qFactors.Factors(ctx, dr)
			return
		})
		fetch("macro predictors", func() (err error) {
			macroRecords, err = macro.Predictors(ctx, dr)
			return
		})
		wg.Wait()

		if fetchErr != nil {
			log.Fatal().Err(fetchErr).Msg("fetching raw data failed")
		}

		// derive
		fundamentals := pipeline.ProcessFundamentals(rawFundamentals, dr)
		securities := pipeline.ProcessSecurities(rawMonthly, factorsMonthly, links, rawDaily, factorsDaily, dr)
		volFactor := pipeline.BuildVolFactor(securities)

		panel, err := pipeline.Assemble(fundamentals, securities, buildLag)
		if err != nil {
			log.Fatal().Err(err).Msg("assembling panel failed")
		}

		// store
		saves := []struct {
			table string
			rows  int
			save  func() error
		}{
			{library.FundamentalsTable, len(fundamentals), func() error {
				return myLibrary.SaveFundamentals(ctx, dr, fundamentals)
			}},
			{library.SecurityPanelTable, len(securities), func() error {
				return myLibrary.SaveSecurityPanel(ctx, dr, securities)
			}},
			{library.FactorsFF3Table, len(factorsMonthly), func() error {
				return myLibrary.SaveFactors(ctx, dr, 3, factorsMonthly)
			}},
			{library.FactorsFF5Table, len(factorsFive), func() error {
				return myLibrary.SaveFactors(ctx, dr, 5, factorsFive)
			}},
			{library.PriceIndexTable, len(priceIndex), func() error {
				return myLibrary.SavePriceIndex(ctx, dr, priceIndex)
			}},
			{library.QFactorsTable, len(qObservations), func() error {
				return myLibrary.SaveQFactors(ctx, dr, qObservations)
			}},
			{library.MacroPredictorsTable, len(macroRecords), func() error {
				return myLibrary.SaveMacroPredictors(ctx, dr, macroRecords)
			}},
			{library.AssembledPanelTable, len(panel), func() error {
				return myLibrary.SaveAssembledPanel(ctx, dr, panel)
			}},
			{library.VolFactorTable, len(volFactor), func() error {
				return myLibrary.SaveVolFactor(ctx, dr, volFactor)
			}},
		}

		summary := &data.BuildSummary{
			ID:         uuid.New(),
			RangeStart: dr.Start,
			RangeEnd:   dr.End,
			StartTime:  startTime,
			TableRows:  make(map[string]int, len(saves)),
		}

		for _, s := range saves {
			if err := s.save(); err != nil {
				log.Fatal().Err(err).Str("Table", s.table).Msg("saving dataset failed")
			}
			summary.TableRows[s.table] = s.rows
		}

		summary.EndTime = time.Now()
		if err := myLibrary.SaveBuildSummary(ctx, summary); err != nil {
			log.Fatal().Err(err).Msg("saving build summary failed")
		}

		log.Info().
			Str("BuildID", summary.ID.String()).
			Str("Range", dr.TableSuffix()).
			Int("PanelRows", len(panel)).
			Dur("Elapsed", summary.EndTime.Sub(summary.StartTime)).
			Msg("build complete")
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildStart, "start", "1963-01-01", "first date of the build range (YYYY-MM-DD)")
	buildCmd.Flags().StringVar(&buildEnd, "end", "2023-12-31", "last date of the build range (YYYY-MM-DD)")
	buildCmd.Flags().IntVar(&buildLag, "lag", pipeline.DefaultLagMonths, "months before annual accounting data becomes tradeable")
	buildCmd.Flags().BoolVar(&buildInsecure, "insecure", false, "skip TLS verification for q-factor and macro predictor downloads")
}
