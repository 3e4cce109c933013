package app

import (
	"testing"
	"time"

	"parcel-dispatch/internal/domain"

	"github.com/stretchr/testify/require"
)

func newTestTrafficService(snapshot map[string]float64) *TrafficService {
	table := domain.NewSpeedTable()
	table.Swap(snapshot)
	return &TrafficService{table: table}
}

func TestCongestionFactorEmptyTableIsNeutral(t *testing.T) {
	svc := newTestTrafficService(nil)
	require.Equal(t, 1.0, svc.congestionFactor())
}

func TestCongestionFactorMostlySlowIsHeavy(t *testing.T) {
	svc := newTestTrafficService(map[string]float64{
		"a": 15, "b": 18, "c": 20, "d": 60,
	})
	require.Equal(t, 0.7, svc.congestionFactor())
}

func TestCongestionFactorMostlyFastIsLight(t *testing.T) {
	svc := newTestTrafficService(map[string]float64{
		"a": 60, "b": 65, "c": 70, "d": 15,
	})
	require.Equal(t, 1.1, svc.congestionFactor())
}

func TestCongestionFactorIgnoresOutOfRangeReadings(t *testing.T) {
	svc := newTestTrafficService(map[string]float64{
		"a": 5, "b": 100,
	})
	require.Equal(t, 1.0, svc.congestionFactor())
}

func TestRewriteManeuverStaysWithinAcceptBand(t *testing.T) {
	m := domain.Maneuver{
		Length:      1.0,
		Time:        120,
		StreetNames: []string{"테헤란로"},
	}
	// Midday, neutral congestion: speed stays inside the accept band.
	noon := time.Date(2026, 7, 29, 13, 0, 0, 0, time.UTC)
	rewritten := rewriteManeuver(m, 1.0, noon)
	require.Greater(t, rewritten.OriginalTime, 0.0)
	require.Equal(t, 120.0, rewritten.OriginalTime)
	ratio := rewritten.Time / m.Time
	require.GreaterOrEqual(t, ratio, 0.3)
	require.LessOrEqual(t, ratio, 3.0)
}

func TestRewriteManeuverRejectsOutOfBandResult(t *testing.T) {
	m := domain.Maneuver{Length: 10.0, Time: 1.0}
	rewritten := rewriteManeuver(m, 1.0, time.Now().UTC())
	// A 10km maneuver reported as taking 1 second can't land inside [0.3,3.0]
	// of any plausible rewritten time; the original is returned unchanged.
	require.Equal(t, m, rewritten)
}

func TestRewriteMatrixCellAcceptBand(t *testing.T) {
	cell := domain.MatrixCell{Distance: 10, Time: 800}
	rewritten := rewriteMatrixCell(cell, 1.0)
	ratio := rewritten.Time / cell.Time
	require.GreaterOrEqual(t, ratio, 0.5)
	require.LessOrEqual(t, ratio, 2.0)
}

func TestRewriteMatrixCellRejectsZeroTime(t *testing.T) {
	cell := domain.MatrixCell{Distance: 10, Time: 0}
	require.Equal(t, cell, rewriteMatrixCell(cell, 1.0))
}

func TestTimeOfDayFactor(t *testing.T) {
	mk := func(hour int) time.Time { return time.Date(2026, 7, 29, hour, 0, 0, 0, time.UTC) }
	require.Equal(t, 0.60, timeOfDayFactor(mk(8)))
	require.Equal(t, 0.60, timeOfDayFactor(mk(19)))
	require.Equal(t, 0.80, timeOfDayFactor(mk(13)))
	require.Equal(t, 1.40, timeOfDayFactor(mk(23)))
	require.Equal(t, 1.0, timeOfDayFactor(mk(10)))
}

func TestAreaFactor(t *testing.T) {
	require.Equal(t, 0.75, areaFactor("테헤란로"))
	require.Equal(t, 1.30, areaFactor("올림픽대로"))
	require.Equal(t, 1.0, areaFactor("아무개길"))
}

func TestBumpByStreetKeyword(t *testing.T) {
	require.Equal(t, 40.0, bumpByStreetKeyword(20, "경부고속도로"))
	require.Equal(t, 30.0, bumpByStreetKeyword(20, "왕십리로"))
	require.Equal(t, 30.0, bumpByStreetKeyword(35, "행복길"))
	require.Equal(t, 20.0, bumpByStreetKeyword(20, ""))
}
