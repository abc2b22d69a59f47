package config

import "time"

// Application constants
const (
	AppName   = "Regional Forecaster"
	EnvPrefix = "FORECAST"

	// Default file names inside the data directory
	PopulationFileName    = "TUIK_Nufus_Verileri.csv"
	EconomicFileName      = "GayriSafiSektor.csv"
	TrainingWorkbookName  = "Prophet_Training_Set_Sektorlu.xlsx"
	USDWorkbookName       = "Prophet_Training_Set_Sektorlu_USD.xlsx"
	PopulationReportName  = "Rapor_1_Nufus_Tahminleri.pdf"
	EconomyReportName     = "Rapor_2_GSYIH_ve_Sektor_Analizi.pdf"
	EvaluationSummaryName = "cv_summary.csv"
	ForecastsCSVName      = "forecasts.csv"

	// Workbook sheet names
	NationalSheetName = "Turkiye_Toplam"
	RegionSheetName   = "Iller_Verisi"

	// Economic source layout
	DefaultYearRow        = 3
	DefaultFirstRegionRow = 5
	DefaultRowStride      = 2
	DefaultDelimiter      = "|"

	// Forecast defaults
	DefaultHorizon               = 5
	DefaultIntervalWidth         = 0.8
	DefaultChangepointRange      = 0.8
	DefaultNChangepoints         = 25
	DefaultChangepointPriorScale = 0.05
	DefaultSeasonalityPriorScale = 10.0
	DefaultYearlyOrder           = 10

	// Cross validation windows
	DefaultCVInitial = 3650 * 24 * time.Hour
	DefaultCVPeriod  = 365 * 24 * time.Hour
	DefaultCVHorizon = 1825 * 24 * time.Hour

	// Dashboard bounds
	MinHorizon         = 1
	MaxHorizon         = 30
	MinTriggerYear     = 2024
	MaxTriggerYear     = 2050
	DefaultTriggerYear = 2030
	MinSeverity        = 1
	MaxSeverity        = 90
	DefaultSeverity    = 20
	DefaultTopSectors  = 5
	DefaultTableRows   = 5
)

// DefaultExchangeRates returns the yearly average TRY per USD rates
func DefaultExchangeRates() map[int]float64 {
	return map[int]float64{
		2004: 1.42, 2005: 1.34, 2006: 1.43, 2007: 1.30,
		2008: 1.29, 2009: 1.55, 2010: 1.50, 2011: 1.67,
		2012: 1.80, 2013: 1.90, 2014: 2.19, 2015: 2.72,
		2016: 3.02, 2017: 3.65, 2018: 4.81, 2019: 5.67,
		2020: 7.01, 2021: 8.89, 2022: 16.57, 2023: 23.77,
		2024: 31.50,
	}
}
