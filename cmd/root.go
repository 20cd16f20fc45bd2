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
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fmdata",
	Short: "fmdata builds asset-pricing research panels and estimates factor risk premia",
	Long: `fmdata is a command line utility for building the datasets behind
cross-sectional asset-pricing research. It downloads raw firm fundamentals,
security prices and published factor returns, derives the standard firm
characteristics (size, book-to-market, operating profitability, investment,
momentum, volatility), assembles them into a regression-ready monthly panel
stored in PostgreSQL, and estimates factor risk premia with Fama-MacBeth
cross-sectional regressions.

Raw inputs come from a research data warehouse (fundamentals, monthly and
daily security files, security-to-firm links) and public sources (factor
return archives, FRED price indices, q-factor and macro predictor files).
Every derived dataset is stored per build range, so panels for different
sample periods coexist and rebuilds replace exactly one range.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fmdata.toml)")
	rootCmd.PersistentFlags().String("dbUrl", "", "research database connection string")
	if err := viper.BindPFlag("DBUrl", rootCmd.PersistentFlags().Lookup("dbUrl")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for dbUrl failed")
	}

	rootCmd.PersistentFlags().String("warehouseUrl", "", "data warehouse connection string")
	if err := viper.BindPFlag("WarehouseUrl", rootCmd.PersistentFlags().Lookup("warehouseUrl")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for warehouseUrl failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// credentials may live in a .env next to the working directory
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("loaded environment from .env")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".fmdata" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".fmdata")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
