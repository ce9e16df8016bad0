package config

import "cruisepulse/pkg/contracts"

// Application constants
const (
	AppName    = "Cruise Pulse"
	AppVersion = contracts.Version

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultUploadsDir = "data/uploads"
	DefaultResultsDir = "data/results"
	DefaultLogsDir    = "logs"
	DefaultRatesFile  = "data/app_data/currency_rates.csv"

	// Uploads
	DefaultMaxUploadBytes = 16 << 20

	// Pipeline variants
	RegionSourceCountry      = "country"
	RegionSourceBuyerName    = "buyer_name"
	CheckinReferenceNow      = "now"
	CheckinReferenceCreation = "creation_date"

	// DefaultMarkup is applied on top of the central-bank rate
	DefaultMarkup = 1.045

	// Central bank of Russia daily rates
	DefaultCBRURL         = "http://www.cbr.ru/scripts/XML_daily.asp"
	DefaultRatesStartDate = "2024-01-01"

	// Output naming
	ResultFilePrefix      = "processed_"
	ResultTimestampLayout = "20060102_150405"
	DownloadFilePrefix    = "cruise_analytics_"
)

// AllowedUploadExtensions are the input formats accepted from uploads
var AllowedUploadExtensions = []string{".xlsx", ".xls", ".csv"}
