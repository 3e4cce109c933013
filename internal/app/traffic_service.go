package app

import (
	"context"
	"math"
	"strings"
	"time"

	"parcel-dispatch/internal/domain"
	"parcel-dispatch/shared/httpretry"

	"github.com/sirupsen/logrus"
)

// LinkMapping is one row of the CSV mapping loaded at process start: an
// internal service-link-id to the routing-engine's way-id.
type LinkMapping struct {
	ServiceLinkID string
	WayID         string
}

// TrafficService is the Traffic Proxy: it wraps the raw routing-engine
// client with a harvested Speed Table and rewrites /route and /matrix
// responses before any caller sees them. It implements domain.RoutingEngine
// itself, so the dispatch planner depends on the rewritten view only.
type TrafficService struct {
	raw       domain.RoutingEngine
	feed      domain.SpeedFeed
	table     *domain.SpeedTable
	mappings  []LinkMapping
	sweepEvery time.Duration
	location  *time.Location
	log       *logrus.Logger
}

func NewTrafficService(
	raw domain.RoutingEngine,
	feed domain.SpeedFeed,
	table *domain.SpeedTable,
	mappings []LinkMapping,
	sweepEvery time.Duration,
	location *time.Location,
	log *logrus.Logger,
) *TrafficService {
	return &TrafficService{
		raw:        raw,
		feed:       feed,
		table:      table,
		mappings:   mappings,
		sweepEvery: sweepEvery,
		location:   location,
		log:        log,
	}
}

// Run is the harvester: one dedicated long-running task, never re-entered,
// started from main.go as a goroutine and stopped cooperatively on context
// cancellation. Grounded on
// original_source/tsp_prob/traffic_proxy.py's start_traffic_updater daemon
// thread, translated into Go's goroutine+ticker idiom.
func (t *TrafficService) Run(ctx context.Context) {
	t.sweep(ctx)
	ticker := time.NewTicker(t.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.log.Info("traffic harvester stopping")
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

// sweep performs one full pass over the CSV mapping. Only a complete sweep
// publishes; a mid-sweep failure logs and continues with the remaining
// links.
func (t *TrafficService) sweep(ctx context.Context) {
	next := make(map[string]float64, len(t.mappings))
	failures := 0
	for _, m := range t.mappings {
		entry, err := t.feed.FetchSpeed(ctx, m.ServiceLinkID)
		if err != nil {
			failures++
			t.log.WithError(err).WithField("service_link_id", m.ServiceLinkID).Warn("speed feed record failed")
			time.Sleep(50 * time.Millisecond)
			continue
		}
		next[m.WayID] = entry.KMH
		time.Sleep(50 * time.Millisecond)
	}
	t.table.Swap(next)
	t.log.WithFields(logrus.Fields{"harvested": len(next), "failed": failures}).Info("traffic sweep complete")
}

// Matrix implements domain.RoutingEngine: fetch the raw matrix, then rewrite
// every cell with distance > 0.
func (t *TrafficService) Matrix(ctx context.Context, locations []domain.Location) (domain.MatrixResponse, error) {
	resp, err := httpretry.Do(ctx, 3, 2*time.Second, func() (domain.MatrixResponse, error) {
		return t.raw.Matrix(ctx, locations)
	})
	if err != nil {
		return domain.MatrixResponse{}, err
	}
	congestion := t.congestionFactor()
	for i, row := range resp.SourcesToTargets {
		for j, cell := range row {
			if cell.Distance <= 0 {
				continue
			}
			resp.SourcesToTargets[i][j] = rewriteMatrixCell(cell, congestion)
		}
	}
	return resp, nil
}

// Route implements domain.RoutingEngine: fetch the raw route, then — only
// when live traffic was requested — rewrite every maneuver with length > 0.
func (t *TrafficService) Route(ctx context.Context, locations []domain.Location, useLiveTraffic bool) (domain.RouteResponse, error) {
	resp, err := httpretry.Do(ctx, 3, 2*time.Second, func() (domain.RouteResponse, error) {
		return t.raw.Route(ctx, locations, useLiveTraffic)
	})
	if err != nil {
		return domain.RouteResponse{}, err
	}
	if !useLiveTraffic {
		return resp, nil
	}

	congestion := t.congestionFactor()
	now := time.Now().In(t.location)
	applied, total := 0, 0

	for li, leg := range resp.Trip.Legs {
		legTime := 0.0
		for mi, m := range leg.Maneuvers {
			if m.Length <= 0 {
				legTime += m.Time
				continue
			}
			total++
			rewritten := rewriteManeuver(m, congestion, now)
			resp.Trip.Legs[li].Maneuvers[mi] = rewritten
			if rewritten.AppliedSpeedKMH > 0 {
				applied++
			}
			legTime += resp.Trip.Legs[li].Maneuvers[mi].Time
		}
		resp.Trip.Legs[li].Summary.Time = legTime
	}

	tripTime := 0.0
	for _, leg := range resp.Trip.Legs {
		tripTime += leg.Summary.Time
	}
	resp.Trip.Summary.Time = tripTime
	resp.Trip.Summary.HasTraffic = applied > 0
	resp.Trip.Summary.AppliedSegments = applied
	resp.Trip.Summary.TotalSegments = total

	return resp, nil
}

// congestionFactor computes the congestion factor: drawn from
// the Speed Table distribution restricted to [10, 80] km/h.
func (t *TrafficService) congestionFactor() float64 {
	snapshot := t.table.Snapshot()
	var inRange, slow int
	for _, kmh := range snapshot {
		if kmh < 10 || kmh > 80 {
			continue
		}
		inRange++
		if kmh < 25 {
			slow++
		}
	}
	if inRange == 0 {
		return 1.0
	}
	ratio := float64(slow) / float64(inRange)
	switch {
	case ratio > 0.5:
		return 0.7
	case ratio > 0.3:
		return 0.85
	default:
		return 1.1
	}
}

// rewriteManeuver computes a four-factor effective speed and applies
// the [0.3, 3.0] accept band.
func rewriteManeuver(m domain.Maneuver, congestion float64, now time.Time) domain.Maneuver {
	streetName := ""
	if len(m.StreetNames) > 0 {
		streetName = m.StreetNames[0]
	}

	speed := baseSpeedByLength(m.Length)
	speed = bumpByStreetKeyword(speed, streetName)
	speed *= congestion
	speed *= areaFactor(streetName)
	speed *= timeOfDayFactor(now)
	speed = clamp(speed, 8, 80)

	newTime := m.Length / speed * 3600
	ratio := newTime / m.Time
	if m.Time <= 0 || ratio < 0.3 || ratio > 3.0 {
		return m
	}

	m.OriginalTime = m.Time
	m.Time = newTime
	m.AppliedSpeedKMH = speed
	return m
}

func baseSpeedByLength(lengthKM float64) float64 {
	switch {
	case lengthKM < 0.5:
		return 25
	case lengthKM < 1.5:
		return 35
	default:
		return 50
	}
}

func bumpByStreetKeyword(speed float64, streetName string) float64 {
	switch {
	case containsAny(streetName, "대로", "고속도로", "순환로"):
		return math.Max(speed, 40)
	case strings.Contains(streetName, "로"):
		return math.Max(speed, 30)
	case containsAny(streetName, "길", "동"):
		return math.Min(speed, 30)
	default:
		return speed
	}
}

func areaFactor(streetName string) float64 {
	switch {
	case containsAny(streetName, "강남", "서초", "테헤란로"):
		return 0.75
	case containsAny(streetName, "종로", "을지로", "중구"):
		return 0.80
	case containsAny(streetName, "올림픽대로", "강변북로", "동부간선"):
		return 1.30
	case containsAny(streetName, "외곽순환", "순환로"):
		return 1.15
	default:
		return 1.0
	}
}

func timeOfDayFactor(now time.Time) float64 {
	h := now.Hour()
	switch {
	case (h >= 7 && h < 9) || (h >= 18 && h < 20):
		return 0.60
	case h >= 12 && h < 14:
		return 0.80
	case h >= 22 || h < 6:
		return 1.40
	default:
		return 1.0
	}
}

// rewriteMatrixCell applies the matrix rewrite: distance-
// tiered expected speed, same congestion factor, [0.5, 2.0] accept band.
func rewriteMatrixCell(cell domain.MatrixCell, congestion float64) domain.MatrixCell {
	var speed float64
	switch {
	case cell.Distance >= 5:
		speed = 45
	case cell.Distance >= 2:
		speed = 35
	default:
		speed = 25
	}
	speed *= congestion

	newTime := cell.Distance / speed * 3600
	if cell.Time <= 0 {
		return cell
	}
	ratio := newTime / cell.Time
	if ratio < 0.5 || ratio > 2.0 {
		return cell
	}
	cell.Time = newTime
	return cell
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
