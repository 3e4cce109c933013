// Package app holds the business-logic implementations of the domain
// ports: the phase-parameterized dispatch planner and the traffic proxy.
package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"parcel-dispatch/internal/domain"

	"github.com/sirupsen/logrus"
)

const cutoffHour = 12 // pickup-phase daily cut-off

// dispatchService is the single phase-parameterized implementation of
// domain.DispatchService, replacing the two near-identical Flask services
// (pickup and delivery) that duplicated planning logic across phases,
// grounded on original_source/tsp_prob/main_service.py and
// delivery_service.py.
type dispatchService struct {
	repo      domain.Repository
	geocoder  domain.Geocoder
	routing   domain.RoutingEngine // traffic-proxy-fronted
	optimizer domain.TSPOptimizer
	hub       *domain.HubStatus

	pickup   domain.PhaseConfig
	delivery domain.PhaseConfig

	location *time.Location
	log      *logrus.Logger
}

func NewDispatchService(
	repo domain.Repository,
	geocoder domain.Geocoder,
	routing domain.RoutingEngine,
	optimizer domain.TSPOptimizer,
	hub *domain.HubStatus,
	pickup, delivery domain.PhaseConfig,
	location *time.Location,
	log *logrus.Logger,
) domain.DispatchService {
	return &dispatchService{
		repo:      repo,
		geocoder:  geocoder,
		routing:   routing,
		optimizer: optimizer,
		hub:       hub,
		pickup:    pickup,
		delivery:  delivery,
		location:  location,
		log:       log,
	}
}

func (s *dispatchService) configFor(phase domain.Phase) domain.PhaseConfig {
	if phase == domain.PhaseDelivery {
		return s.delivery
	}
	return s.pickup
}

// IngestPickupAnnouncement assigns a newly-announced parcel to a pickup driver.
func (s *dispatchService) IngestPickupAnnouncement(ctx context.Context, parcelID uint64, now time.Time) (domain.IngestResult, error) {
	parcel, err := s.repo.FindParcel(ctx, parcelID)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if parcel == nil {
		return domain.IngestResult{}, domain.NotFoundf("parcel %d not found", parcelID)
	}

	if now.In(s.location).Hour() >= cutoffHour {
		district, err := s.resolveDistrict(ctx, parcel.RecipientAddr)
		if err != nil {
			return domain.IngestResult{}, err
		}
		driverID, ok := s.pickup.Districts.DriverForDistrict(district)
		if !ok {
			return domain.IngestResult{}, domain.Validationf("no pickup driver mapped for district %q", district)
		}
		tomorrow := startOfDay(now.In(s.location)).AddDate(0, 0, 1)
		affected, err := s.repo.AssignPickup(ctx, parcelID, driverID, tomorrow)
		if err != nil {
			return domain.IngestResult{}, err
		}
		if !affected {
			return domain.IngestResult{}, domain.ConsistencyConflictf("assign-pickup affected no rows for parcel %d", parcelID)
		}
		return domain.IngestResult{Status: "scheduled_tomorrow", ScheduledDate: &tomorrow, DriverID: driverID}, nil
	}

	if parcel.PickupDriverID != nil {
		return domain.IngestResult{Status: "already_processed", DriverID: *parcel.PickupDriverID}, nil
	}

	district, err := s.resolveDistrict(ctx, parcel.RecipientAddr)
	if err != nil {
		return domain.IngestResult{}, err
	}
	driverID, ok := s.pickup.Districts.DriverForDistrict(district)
	if !ok {
		return domain.IngestResult{}, domain.Internalf(nil, "no pickup driver mapped for district %q", district)
	}
	today := startOfDay(now.In(s.location))
	affected, err := s.repo.AssignPickup(ctx, parcelID, driverID, today)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if !affected {
		return domain.IngestResult{}, domain.ConsistencyConflictf("assign-pickup affected no rows for parcel %d", parcelID)
	}
	return domain.IngestResult{Status: "success", ScheduledDate: &today, DriverID: driverID}, nil
}

func (s *dispatchService) resolveDistrict(ctx context.Context, address string) (string, error) {
	result, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return "", err
	}
	if result.District == "" {
		return "", domain.Validationf("could not resolve a district for address %q", address)
	}
	return result.District, nil
}

// NextDestination computes the driver's next stop, applying the
// tour-traversal rule when an optimizer result is available.
func (s *dispatchService) NextDestination(ctx context.Context, driverID uint64, phase domain.Phase, now time.Time) (domain.NextDestinationResponse, error) {
	cfg := s.configFor(phase)
	local := now.In(s.location)

	windowOpen := time.Date(local.Year(), local.Month(), local.Day(), cfg.WindowOpenHour, 0, 0, 0, s.location)
	if local.Before(windowOpen) {
		return domain.NextDestinationResponse{
			Status:      domain.StatusWaiting,
			StartTime:   fmt.Sprintf("%02d:00", cfg.WindowOpenHour),
			CurrentTime: local.Format("15:04"),
		}, nil
	}

	outstanding, err := s.outstandingForPhase(ctx, driverID, phase)
	if err != nil {
		return domain.NextDestinationResponse{}, err
	}

	current, err := s.currentPosition(ctx, driverID, phase)
	if err != nil {
		return domain.NextDestinationResponse{}, err
	}

	if len(outstanding) == 0 {
		if s.hub.IsAtHub(driverID) {
			return domain.NextDestinationResponse{Status: domain.StatusAtHub}, nil
		}
		if phase == domain.PhasePickup && local.Hour() < cutoffHour {
			return domain.NextDestinationResponse{Status: domain.StatusWaitingForOrders}, nil
		}
		route, err := s.routing.Route(ctx, []domain.Location{current, domain.HubLocation}, true)
		if err != nil {
			s.log.WithError(err).Warn("hub-return route request failed, returning bare hub location")
			route = domain.RouteResponse{}
		} else {
			route = extractWaypoints(route)
		}
		return domain.NextDestinationResponse{
			Status:          domain.StatusReturnToHub,
			NextDestination: &domain.NextDestination{Location: domain.HubLocation},
			Route:           &route,
			IsLast:          true,
		}, nil
	}

	if s.hub.IsAtHub(driverID) {
		s.hub.ClearOnNewStop(driverID)
	}

	locations := make([]domain.Location, 0, len(outstanding)+1)
	locations = append(locations, current)
	for _, p := range outstanding {
		geo, err := s.geocoder.Geocode(ctx, p.RecipientAddr)
		if err != nil {
			return domain.NextDestinationResponse{}, err
		}
		locations = append(locations, domain.Location{Lat: geo.Lat, Lon: geo.Lon})
	}

	nextIdx, algorithmUsed := s.chooseNextIndex(ctx, locations)

	var parcelID uint64
	if nextIdx >= 1 && nextIdx-1 < len(outstanding) {
		parcelID = outstanding[nextIdx-1].ID
	}

	route, err := s.routing.Route(ctx, []domain.Location{locations[0], locations[nextIdx]}, true)
	if err != nil {
		s.log.WithError(err).Warn("next-stop route request failed, returning bare coordinates")
		route = domain.RouteResponse{}
	} else {
		route = extractWaypoints(route)
	}

	return domain.NextDestinationResponse{
		Status: domain.StatusSuccess,
		NextDestination: &domain.NextDestination{
			ParcelID: parcelID,
			Location: locations[nextIdx],
		},
		Route:          &route,
		AlgorithmUsed:  algorithmUsed,
		RemainingCount: len(outstanding),
	}, nil
}

// chooseNextIndex submits the locations matrix to the TSP optimizer and
// applies the tour-traversal rule: the next destination is the first
// element of tour[1:] that is not 0; if none, fall back to index 1. On
// optimizer failure, fall back to the nearest strategy (locations[1]).
func (s *dispatchService) chooseNextIndex(ctx context.Context, locations []domain.Location) (int, string) {
	matrixResp, err := s.routing.Matrix(ctx, locations)
	if err != nil {
		s.log.WithError(err).Warn("matrix request failed, falling back to first outstanding stop")
		return 1, domain.AlgorithmFallback
	}

	matrix := toTimeMatrix(matrixResp)
	tourResp, err := s.optimizer.SolveTour(ctx, matrix)
	if err != nil {
		s.log.WithError(err).Warn("optimizer unavailable, falling back to nearest")
		return 1, domain.AlgorithmNearest
	}

	return firstNonZeroOrOne(tourResp.Tour), domain.AlgorithmLKH
}

func firstNonZeroOrOne(tour []int) int {
	for _, idx := range tour[1:] {
		if idx != 0 {
			return idx
		}
	}
	return 1
}

func toTimeMatrix(m domain.MatrixResponse) [][]int64 {
	out := make([][]int64, len(m.SourcesToTargets))
	for i, row := range m.SourcesToTargets {
		out[i] = make([]int64, len(row))
		for j, cell := range row {
			out[i][j] = int64(math.RoundToEven(cell.Time))
		}
	}
	return out
}

func (s *dispatchService) outstandingForPhase(ctx context.Context, driverID uint64, phase domain.Phase) ([]domain.Parcel, error) {
	if phase == domain.PhaseDelivery {
		return s.repo.PendingDeliveriesForDriver(ctx, driverID)
	}
	return s.repo.PendingPickupsForDriver(ctx, driverID)
}

func (s *dispatchService) currentPosition(ctx context.Context, driverID uint64, phase domain.Phase) (domain.Location, error) {
	if s.hub.IsAtHub(driverID) {
		return domain.HubLocation, nil
	}
	addr, ok, err := s.repo.LastCompletedStopLocation(ctx, driverID, phase)
	if err != nil {
		return domain.Location{}, err
	}
	if ok {
		geo, err := s.geocoder.Geocode(ctx, addr)
		if err != nil {
			return domain.Location{}, err
		}
		return domain.Location{Lat: geo.Lat, Lon: geo.Lon}, nil
	}
	return domain.HubLocation, nil
}

// CompletePickup completes a pickup stop for the pickup phase.
func (s *dispatchService) CompletePickup(ctx context.Context, driverID, parcelID uint64) (domain.CompletionResponse, error) {
	parcel, err := s.repo.FindParcel(ctx, parcelID)
	if err != nil {
		return domain.CompletionResponse{}, err
	}
	if parcel == nil {
		return domain.CompletionResponse{}, domain.NotFoundf("parcel %d not found", parcelID)
	}
	if parcel.PickupDriverID == nil || *parcel.PickupDriverID != driverID {
		return domain.CompletionResponse{}, domain.Authorizationf("parcel %d is not owned by driver %d for pickup", parcelID, driverID)
	}
	affected, err := s.repo.CompletePickup(ctx, parcelID)
	if err != nil {
		return domain.CompletionResponse{}, err
	}
	if !affected {
		return domain.CompletionResponse{}, domain.ConsistencyConflictf("complete-pickup affected no rows for parcel %d", parcelID)
	}
	remaining, err := s.repo.PendingPickupsForDriver(ctx, driverID)
	if err != nil {
		return domain.CompletionResponse{}, err
	}
	return domain.CompletionResponse{ParcelID: parcelID, RemainingCount: len(remaining)}, nil
}

// CompleteDelivery completes a delivery stop for the delivery phase.
func (s *dispatchService) CompleteDelivery(ctx context.Context, driverID, parcelID uint64) (domain.CompletionResponse, error) {
	parcel, err := s.repo.FindParcel(ctx, parcelID)
	if err != nil {
		return domain.CompletionResponse{}, err
	}
	if parcel == nil {
		return domain.CompletionResponse{}, domain.NotFoundf("parcel %d not found", parcelID)
	}
	if parcel.DeliveryDriverID == nil || *parcel.DeliveryDriverID != driverID {
		return domain.CompletionResponse{}, domain.Authorizationf("parcel %d is not owned by driver %d for delivery", parcelID, driverID)
	}
	affected, err := s.repo.CompleteDelivery(ctx, parcelID)
	if err != nil {
		return domain.CompletionResponse{}, err
	}
	if !affected {
		return domain.CompletionResponse{}, domain.ConsistencyConflictf("complete-delivery affected no rows for parcel %d", parcelID)
	}
	remaining, err := s.repo.PendingDeliveriesForDriver(ctx, driverID)
	if err != nil {
		return domain.CompletionResponse{}, err
	}
	return domain.CompletionResponse{ParcelID: parcelID, RemainingCount: len(remaining)}, nil
}

// HubArrived records a driver's hub arrival; only accepted when the
// driver has zero outstanding stops for their phase.
func (s *dispatchService) HubArrived(ctx context.Context, driverID uint64, phase domain.Phase, now time.Time) (domain.HubArrivalResponse, error) {
	outstanding, err := s.outstandingForPhase(ctx, driverID, phase)
	if err != nil {
		return domain.HubArrivalResponse{}, err
	}
	if len(outstanding) > 0 {
		return domain.HubArrivalResponse{}, &domain.Error{
			Kind:    domain.ErrValidation,
			Message: fmt.Sprintf("driver %d still has %d outstanding stops", driverID, len(outstanding)),
			Details: map[string]any{"remaining_pickups": len(outstanding)},
		}
	}
	s.hub.SetAtHub(driverID, true)
	return domain.HubArrivalResponse{
		Location:     domain.HubLocation,
		LocationName: domain.HubName,
		ArrivedAt:    now.In(s.location).Format("15:04:05"),
	}, nil
}

// AllPickupsCompletedSweep runs the import+assign pipeline once no driver
// has any outstanding pickups left.
func (s *dispatchService) AllPickupsCompletedSweep(ctx context.Context) (int, error) {
	anyOutstanding, err := s.repo.AnyOutstandingPickups(ctx)
	if err != nil {
		return 0, err
	}
	if anyOutstanding {
		return 0, nil
	}
	imported, err := s.ImportTodaysDeliveries(ctx)
	if err != nil {
		return 0, err
	}
	assigned, err := s.AssignDeliveries(ctx)
	if err != nil {
		return imported, err
	}
	return assigned, nil
}

// ImportTodaysDeliveries converts today's completed, unclaimed pickups into
// DELIVERY_PENDING parcels.
func (s *dispatchService) ImportTodaysDeliveries(ctx context.Context) (int, error) {
	parcels, err := s.repo.TodayCompletedPickupsUnclaimedForDelivery(ctx)
	if err != nil {
		return 0, err
	}
	converted := 0
	for _, p := range parcels {
		ok, err := s.repo.ConvertPickupToDelivery(ctx, p.ID)
		if err != nil {
			s.log.WithError(err).WithField("parcel_id", p.ID).Error("convert pickup to delivery failed")
			continue
		}
		if ok {
			converted++
		}
	}
	return converted, nil
}

// AssignDeliveries re-geocodes and assigns today's unassigned deliveries to
// delivery-phase drivers.
func (s *dispatchService) AssignDeliveries(ctx context.Context) (int, error) {
	parcels, err := s.repo.TodayUnassignedDeliveries(ctx)
	if err != nil {
		return 0, err
	}
	assigned := 0
	for _, p := range parcels {
		district, err := s.resolveDistrict(ctx, p.RecipientAddr)
		if err != nil {
			s.log.WithError(err).WithField("parcel_id", p.ID).Warn("could not resolve district for delivery assignment")
			continue
		}
		driverID, ok := s.delivery.Districts.DriverForDistrict(district)
		if !ok {
			s.log.WithField("district", district).Warn("no delivery driver mapped for district")
			continue
		}
		ok, err = s.repo.AssignDelivery(ctx, p.ID, driverID)
		if err != nil {
			s.log.WithError(err).WithField("parcel_id", p.ID).Error("assign delivery failed")
			continue
		}
		if ok {
			assigned++
		}
	}
	return assigned, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
