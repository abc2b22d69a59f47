package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/SirGarbage/Bitirme-Projesi/internal/config"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

const (
	// ridgeScale converts prior scales into ridge penalties
	ridgeScale = 1e-3
	// trendPenalty keeps the normal equations positive definite
	trendPenalty = 1e-8
	// degenerateRange is the spread below which a column is constant
	degenerateRange = 1e-9
)

// cumulativeDays maps a month to the day count before it on a 365 day calendar
var cumulativeDays = [...]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// fourierTerm is one kept seasonal column
type fourierTerm struct {
	order int
	sin   bool
}

// Model is a fitted piecewise-linear trend with optional yearly terms.
// All parameters live in scaled space: t in [0,1] over the history span
// and y divided by yScale.
type Model struct {
	start  time.Time
	span   float64
	yScale float64

	changepoints []float64
	seasonal     []fourierTerm
	beta         []float64

	// sigma is the residual standard deviation in original units
	sigma float64
	// deltaScale and cpRate drive the future trend uncertainty
	deltaScale float64
	cpRate     float64

	last    float64
	history []domain.TimeSeriesPoint
}

// fit estimates the model by ridge least squares.
// points must be sorted by date with at least two distinct dates.
func fit(points []domain.TimeSeriesPoint, cfg config.ForecastConfig) (*Model, error) {
	n := len(points)
	m := &Model{
		start:   points[0].DS,
		span:    points[n-1].DS.Sub(points[0].DS).Seconds(),
		history: points,
	}
	if m.span <= 0 {
		return nil, fmt.Errorf("history spans no time")
	}

	for _, p := range points {
		m.yScale = math.Max(m.yScale, math.Abs(p.Y))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	t := make([]float64, n)
	y := make([]float64, n)
	for i, p := range points {
		t[i] = m.scaleTime(p.DS)
		y[i] = p.Y / m.yScale
	}
	m.last = t[n-1]

	m.changepoints = placeChangepoints(t, cfg.ChangepointRange, cfg.NChangepoints)
	if cfg.YearlySeasonality {
		m.seasonal = keptSeasonalTerms(points, cfg.YearlyOrder)
	}

	X := m.design(points, t)
	_, p := X.Dims()

	penalties := make([]float64, p)
	penalties[0] = trendPenalty
	penalties[1] = trendPenalty
	for j := range m.changepoints {
		penalties[2+j] = ridgeScale / (cfg.ChangepointPriorScale * cfg.ChangepointPriorScale)
	}
	for j := range m.seasonal {
		penalties[2+len(m.changepoints)+j] = ridgeScale / (cfg.SeasonalityPriorScale * cfg.SeasonalityPriorScale)
	}

	beta, err := solveRidge(X, y, penalties)
	if err != nil {
		return nil, err
	}
	m.beta = beta

	// Residuals in original units
	var fitted mat.VecDense
	fitted.MulVec(X, mat.NewVecDense(p, beta))
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = (y[i] - fitted.AtVec(i)) * m.yScale
	}
	var ss float64
	for _, r := range resid {
		ss += r * r
	}
	m.sigma = math.Sqrt(ss / float64(n))

	m.cpRate = float64(len(m.changepoints))
	if len(m.changepoints) > 0 {
		m.deltaScale = stat.Mean(absAll(beta[2:2+len(m.changepoints)]), nil)
	}
	if m.cpRate == 0 {
		m.cpRate = 1
	}
	if m.deltaScale == 0 {
		m.deltaScale = cfg.ChangepointPriorScale
	}

	return m, nil
}

// solveRidge solves (XᵀX + diag(penalties))β = Xᵀy.
// A singular system falls back to an SVD least squares solution.
func solveRidge(X *mat.Dense, y []float64, penalties []float64) ([]float64, error) {
	_, p := X.Dims()

	var A mat.Dense
	A.Mul(X.T(), X)
	for j, l := range penalties {
		A.Set(j, j, A.At(j, j)+l)
	}

	var b mat.VecDense
	b.MulVec(X.T(), mat.NewVecDense(len(y), y))

	var beta mat.VecDense
	if err := beta.SolveVec(&A, &b); err != nil {
		var svd mat.SVD
		if !svd.Factorize(&A, mat.SVDThin) {
			return nil, fmt.Errorf("normal equations are singular and SVD failed: %w", err)
		}
		svd.SolveVecTo(&beta, &b, svd.Rank(1e-12))
	}

	out := make([]float64, p)
	for j := range out {
		out[j] = beta.AtVec(j)
	}
	return out, nil
}

// placeChangepoints spreads up to nMax changepoints over the first
// fraction of the history, on observed time positions
func placeChangepoints(t []float64, fraction float64, nMax int) []float64 {
	n := len(t)
	histSize := int(math.Floor(float64(n) * fraction))
	count := min(nMax, histSize-1)
	if count <= 0 {
		return nil
	}

	cps := make([]float64, 0, count)
	for i := 1; i <= count; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(count)))
		cps = append(cps, t[idx])
	}
	return cps
}

// keptSeasonalTerms returns the Fourier columns that vary over the history.
// Samples taken on the same calendar day every year produce constant
// columns, which are dropped.
func keptSeasonalTerms(points []domain.TimeSeriesPoint, order int) []fourierTerm {
	var kept []fourierTerm
	for k := 1; k <= order; k++ {
		for _, isSin := range []bool{true, false} {
			term := fourierTerm{order: k, sin: isSin}
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, p := range points {
				v := term.value(p.DS)
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			if hi-lo > degenerateRange {
				kept = append(kept, term)
			}
		}
	}
	return kept
}

// yearPosition is the fraction of the year elapsed on a 365 day calendar
func yearPosition(ds time.Time) float64 {
	day := ds.Day()
	if ds.Month() == time.February && day == 29 {
		day = 28
	}
	return float64(cumulativeDays[ds.Month()]+day-1) / 365
}

func (f fourierTerm) value(ds time.Time) float64 {
	x := 2 * math.Pi * float64(f.order) * yearPosition(ds)
	if f.sin {
		return math.Sin(x)
	}
	return math.Cos(x)
}

func (m *Model) scaleTime(ds time.Time) float64 {
	return ds.Sub(m.start).Seconds() / m.span
}

// design builds the regression matrix: intercept, slope, hinge columns
// for each changepoint, then the kept seasonal columns
func (m *Model) design(points []domain.TimeSeriesPoint, t []float64) *mat.Dense {
	p := 2 + len(m.changepoints) + len(m.seasonal)
	X := mat.NewDense(len(points), p, nil)
	for i := range points {
		X.SetRow(i, m.features(points[i].DS, t[i]))
	}
	return X
}

func (m *Model) features(ds time.Time, t float64) []float64 {
	row := make([]float64, 0, 2+len(m.changepoints)+len(m.seasonal))
	row = append(row, 1, t)
	for _, c := range m.changepoints {
		row = append(row, math.Max(0, t-c))
	}
	for _, s := range m.seasonal {
		row = append(row, s.value(ds))
	}
	return row
}

// predictAt returns the point forecast in original units
func (m *Model) predictAt(ds time.Time) float64 {
	t := m.scaleTime(ds)
	var v float64
	for j, x := range m.features(ds, t) {
		v += m.beta[j] * x
	}
	return v * m.yScale
}

// bandAt returns the half width of the interval at ds for quantile z.
// Past the last observation the trend variance grows with the cube of
// the distance, as for slope changes arriving at cpRate.
func (m *Model) bandAt(ds time.Time, z float64) float64 {
	variance := m.sigma * m.sigma
	if dt := m.scaleTime(ds) - m.last; dt > 0 {
		trend := m.cpRate * m.deltaScale * m.deltaScale * dt * dt * dt / 3
		variance += trend * m.yScale * m.yScale
	}
	return z * math.Sqrt(variance)
}

// Predict evaluates the model at the given dates. Rows at or before the
// last observation are marked historical.
func (m *Model) Predict(dates []time.Time, z float64) []domain.ForecastRow {
	rows := make([]domain.ForecastRow, len(dates))
	lastDS := m.history[len(m.history)-1].DS
	for i, ds := range dates {
		yhat := m.predictAt(ds)
		band := m.bandAt(ds, z)
		rows[i] = domain.ForecastRow{
			DS:         ds,
			YHat:       yhat,
			YHatLower:  yhat - band,
			YHatUpper:  yhat + band,
			Historical: !ds.After(lastDS),
		}
	}
	return rows
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
