// Package config loads and validates application configuration.
//
// Values are layered, lowest precedence first:
//
//  1. Default()
//  2. an optional YAML file (config.yaml, configs/config.yaml or CRUISE_CONFIG_FILE)
//  3. a .env file in the working directory
//  4. environment variables prefixed with CRUISE_
//
// Environment variables follow the struct nesting, for example:
//
//	CRUISE_SERVER_PORT=8080
//	CRUISE_LOGGING_LEVEL=debug
//	CRUISE_PATHS_RATES_FILE=/srv/cruise/currency_rates.csv
//	CRUISE_PIPELINE_REGION_SOURCE=buyer_name
//	CRUISE_PIPELINE_IMPUTE_MISSING=true
//
// Paths resolves every configured location against a base directory, which
// defaults to the directory of the running executable.
package config
