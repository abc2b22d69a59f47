package services

import "errors"

// Service errors
var (
	// ErrUnknownChart is returned for a chart name outside Charts
	ErrUnknownChart = errors.New("unknown chart")

	// ErrNoEconomicData is returned when a stage needs GDP columns
	ErrNoEconomicData = errors.New("dataset has no economic data")
)
