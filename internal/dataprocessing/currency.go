package dataprocessing

import (
	"log/slog"

	"github.com/shopspring/decimal"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/internal/infrastructure"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// ConversionStats summarises a currency conversion
type ConversionStats struct {
	Converted    int
	Unavailable  int
	MissingYears []int
}

// Converter turns local currency GDP into USD with a fixed rate table
type Converter struct {
	rates  domain.ExchangeRateTable
	logger *slog.Logger
}

// NewConverter creates a converter over the given rate table
func NewConverter(rates domain.ExchangeRateTable, logger *slog.Logger) *Converter {
	return &Converter{
		rates:  rates,
		logger: infrastructure.WithComponent(logger, "currency_converter"),
	}
}

// Convert divides gdp by the rate for year using exact decimal arithmetic.
// A year without a positive rate returns the unavailable marker and a
// MissingConversionRate error the caller may log and ignore.
func (c *Converter) Convert(gdp float64, year int) (domain.NullFloat64, error) {
	rate, ok := c.rates.Rate(year)
	if !ok {
		return domain.Unavailable(), apperrors.NewMissingRateError(year)
	}
	usd, _ := decimal.NewFromFloat(gdp).Div(decimal.NewFromFloat(rate)).Float64()
	return domain.Float(usd), nil
}

// ConvertDataset returns a copy of the dataset with GDPUSD filled in.
// The input is not modified.
func (c *Converter) ConvertDataset(in *domain.MergedDataset) (*domain.MergedDataset, ConversionStats) {
	var stats ConversionStats
	missing := make(map[int]bool)

	out := *in
	out.Regions = make([]domain.MergedRecord, len(in.Regions))
	out.National = make([]domain.NationalRecord, len(in.National))
	out.HasUSD = true

	for i, n := range in.National {
		if n.Shares != nil {
			n.Shares = copyShares(n.Shares, len(n.Shares))
		}
		out.National[i] = n
	}

	for i, r := range in.Regions {
		usd, err := c.Convert(r.GDP, r.Year)
		if err != nil {
			stats.Unavailable++
			if !missing[r.Year] {
				missing[r.Year] = true
				stats.MissingYears = append(stats.MissingYears, r.Year)
			}
		} else {
			stats.Converted++
		}
		if r.Shares != nil {
			r.Shares = copyShares(r.Shares, len(r.Shares))
		}
		r.GDPUSD = usd
		out.Regions[i] = r
	}

	c.logger.Info("GDP converted to USD",
		slog.Int("converted", stats.Converted),
		slog.Int("unavailable", stats.Unavailable),
		slog.Any("missing_years", stats.MissingYears))

	return &out, stats
}
