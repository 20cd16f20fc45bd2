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
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/factor-lab/fmdata/db"
)

type initialConfig struct {
	DBUrl        string `toml:"DBUrl"`
	WarehouseUrl string `toml:"WarehouseUrl"`
	FredApiKey   string `toml:"FredApiKey"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema and write the config file",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := initialConfig{
			DBUrl:        viper.GetString("DBUrl"),
			WarehouseUrl: viper.GetString("WarehouseUrl"),
			FredApiKey:   viper.GetString("FredApiKey"),
		}

		if _, err := pgx.ParseConfig(cfg.DBUrl); err != nil {
			log.Fatal().Err(err).Msg("invalid database connection string; set --dbUrl")
		}

		log.Info().Msg("creating database tables")

		// run migration
		dbURL := strings.Replace(cfg.DBUrl, "postgres://", "pgx5://", -1)
		if err := db.Migrate(dbURL); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")

		// save database settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".fmdata.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your research library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
