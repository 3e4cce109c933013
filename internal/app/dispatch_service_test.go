package app

import (
	"context"
	"testing"
	"time"

	"parcel-dispatch/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	parcels map[uint64]*domain.Parcel

	pendingPickups   map[uint64][]domain.Parcel
	pendingDeliveries map[uint64][]domain.Parcel
	lastStop         map[uint64]string

	unclaimedForDelivery []domain.Parcel
	unassignedDeliveries []domain.Parcel
	anyOutstanding       bool

	assignPickupCalls int
}

func (r *fakeRepo) FindParcel(ctx context.Context, id uint64) (*domain.Parcel, error) {
	return r.parcels[id], nil
}

func (r *fakeRepo) PendingPickupsForDriver(ctx context.Context, driverID uint64) ([]domain.Parcel, error) {
	return r.pendingPickups[driverID], nil
}

func (r *fakeRepo) PendingDeliveriesForDriver(ctx context.Context, driverID uint64) ([]domain.Parcel, error) {
	return r.pendingDeliveries[driverID], nil
}

func (r *fakeRepo) LastCompletedStopLocation(ctx context.Context, driverID uint64, phase domain.Phase) (string, bool, error) {
	addr, ok := r.lastStop[driverID]
	return addr, ok, nil
}

func (r *fakeRepo) AssignPickup(ctx context.Context, parcelID, driverID uint64, scheduledDate time.Time) (bool, error) {
	r.assignPickupCalls++
	if p, ok := r.parcels[parcelID]; ok {
		p.PickupDriverID = &driverID
		p.PickupScheduledDate = &scheduledDate
		return true, nil
	}
	return false, nil
}

func (r *fakeRepo) AssignDelivery(ctx context.Context, parcelID, driverID uint64) (bool, error) {
	if p, ok := r.parcels[parcelID]; ok {
		p.DeliveryDriverID = &driverID
		return true, nil
	}
	return false, nil
}

func (r *fakeRepo) CompletePickup(ctx context.Context, parcelID uint64) (bool, error) {
	if p, ok := r.parcels[parcelID]; ok {
		p.Status = domain.StatusPickupCompleted
		return true, nil
	}
	return false, nil
}

func (r *fakeRepo) CompleteDelivery(ctx context.Context, parcelID uint64) (bool, error) {
	if p, ok := r.parcels[parcelID]; ok {
		p.Status = domain.StatusDeliveryCompleted
		return true, nil
	}
	return false, nil
}

func (r *fakeRepo) ConvertPickupToDelivery(ctx context.Context, parcelID uint64) (bool, error) {
	return true, nil
}

func (r *fakeRepo) TodayCompletedPickupsUnclaimedForDelivery(ctx context.Context) ([]domain.Parcel, error) {
	return r.unclaimedForDelivery, nil
}

func (r *fakeRepo) TodayUnassignedDeliveries(ctx context.Context) ([]domain.Parcel, error) {
	return r.unassignedDeliveries, nil
}

func (r *fakeRepo) DailyStatusCounts(ctx context.Context) (map[domain.ParcelStatus]int64, error) {
	return nil, nil
}

func (r *fakeRepo) AnyOutstandingPickups(ctx context.Context) (bool, error) {
	return r.anyOutstanding, nil
}

type fakeGeocoder struct {
	byAddress map[string]domain.GeocodeResult
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	if result, ok := g.byAddress[address]; ok {
		return result, nil
	}
	return domain.GeocodeResult{Lat: 0, Lon: 0, District: ""}, nil
}

type fakeRouting struct {
	matrixResp domain.MatrixResponse
	matrixErr  error
	routeResp  domain.RouteResponse
	routeErr   error
}

func (r *fakeRouting) Route(ctx context.Context, locations []domain.Location, useLiveTraffic bool) (domain.RouteResponse, error) {
	return r.routeResp, r.routeErr
}

func (r *fakeRouting) Matrix(ctx context.Context, locations []domain.Location) (domain.MatrixResponse, error) {
	return r.matrixResp, r.matrixErr
}

type fakeOptimizer struct {
	tour domain.TourResponse
	err  error
}

func (o *fakeOptimizer) SolveTour(ctx context.Context, matrix [][]int64) (domain.TourResponse, error) {
	return o.tour, o.err
}

func newTestDispatchService(t *testing.T, repo domain.Repository, geocoder domain.Geocoder, routing domain.RoutingEngine, optimizer domain.TSPOptimizer) (domain.DispatchService, *domain.HubStatus) {
	t.Helper()
	hub := domain.NewHubStatus()
	location := time.FixedZone("KST", 9*3600)
	pickup := domain.PhaseConfig{Phase: domain.PhasePickup, WindowOpenHour: 7, Districts: domain.DistrictMap{"마포구": 1}}
	delivery := domain.PhaseConfig{Phase: domain.PhaseDelivery, WindowOpenHour: 15, Districts: domain.DistrictMap{"마포구": 6}}
	log := logrus.New()
	log.SetOutput(discardWriter{})
	svc := NewDispatchService(repo, geocoder, routing, optimizer, hub, pickup, delivery, location, log)
	return svc, hub
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestIngestPickupAnnouncementBeforeCutoff(t *testing.T) {
	repo := &fakeRepo{parcels: map[uint64]*domain.Parcel{
		1: {ID: 1, RecipientAddr: "서울 마포구 어딘가"},
	}}
	geocoder := &fakeGeocoder{byAddress: map[string]domain.GeocodeResult{
		"서울 마포구 어딘가": {District: "마포구"},
	}}
	svc, _ := newTestDispatchService(t, repo, geocoder, &fakeRouting{}, &fakeOptimizer{})

	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	result, err := svc.IngestPickupAnnouncement(context.Background(), 1, now)
	require.NoError(t, err)
	require.Equal(t, "success", result.Status)
	require.Equal(t, uint64(1), result.DriverID)
	require.Equal(t, 1, repo.assignPickupCalls)
}

func TestIngestPickupAnnouncementAfterCutoffSchedulesTomorrow(t *testing.T) {
	repo := &fakeRepo{parcels: map[uint64]*domain.Parcel{
		1: {ID: 1, RecipientAddr: "서울 마포구 어딘가"},
	}}
	geocoder := &fakeGeocoder{byAddress: map[string]domain.GeocodeResult{
		"서울 마포구 어딘가": {District: "마포구"},
	}}
	svc, _ := newTestDispatchService(t, repo, geocoder, &fakeRouting{}, &fakeOptimizer{})

	now := time.Date(2026, 7, 29, 13, 15, 0, 0, time.FixedZone("KST", 9*3600))
	result, err := svc.IngestPickupAnnouncement(context.Background(), 1, now)
	require.NoError(t, err)
	require.Equal(t, "scheduled_tomorrow", result.Status)
	require.NotNil(t, result.ScheduledDate)
	require.Equal(t, 30, result.ScheduledDate.Day())
}

func TestIngestPickupAnnouncementAlreadyProcessed(t *testing.T) {
	existing := uint64(9)
	repo := &fakeRepo{parcels: map[uint64]*domain.Parcel{
		1: {ID: 1, RecipientAddr: "서울 마포구 어딘가", PickupDriverID: &existing},
	}}
	svc, _ := newTestDispatchService(t, repo, &fakeGeocoder{}, &fakeRouting{}, &fakeOptimizer{})

	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	result, err := svc.IngestPickupAnnouncement(context.Background(), 1, now)
	require.NoError(t, err)
	require.Equal(t, "already_processed", result.Status)
	require.Equal(t, existing, result.DriverID)
}

func TestNextDestinationBeforeWindowOpen(t *testing.T) {
	svc, _ := newTestDispatchService(t, &fakeRepo{}, &fakeGeocoder{}, &fakeRouting{}, &fakeOptimizer{})

	now := time.Date(2026, 7, 29, 6, 0, 0, 0, time.FixedZone("KST", 9*3600))
	resp, err := svc.NextDestination(context.Background(), 1, domain.PhasePickup, now)
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaiting, resp.Status)
	require.Equal(t, "07:00", resp.StartTime)
}

func TestNextDestinationZeroOutstandingReturnsToHub(t *testing.T) {
	repo := &fakeRepo{pendingDeliveries: map[uint64][]domain.Parcel{}}
	routing := &fakeRouting{routeResp: domain.RouteResponse{}}
	svc, hub := newTestDispatchService(t, repo, &fakeGeocoder{}, routing, &fakeOptimizer{})
	require.False(t, hub.IsAtHub(1))

	now := time.Date(2026, 7, 29, 16, 0, 0, 0, time.FixedZone("KST", 9*3600))
	resp, err := svc.NextDestination(context.Background(), 1, domain.PhaseDelivery, now)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReturnToHub, resp.Status)
	require.True(t, resp.IsLast)
	require.Equal(t, domain.HubLocation, resp.NextDestination.Location)
}

func TestNextDestinationAppliesTourTraversalRule(t *testing.T) {
	repo := &fakeRepo{
		pendingPickups: map[uint64][]domain.Parcel{
			1: {{ID: 10, RecipientAddr: "addr-a"}, {ID: 11, RecipientAddr: "addr-b"}},
		},
	}
	geocoder := &fakeGeocoder{byAddress: map[string]domain.GeocodeResult{
		"addr-a": {Lat: 1, Lon: 1},
		"addr-b": {Lat: 2, Lon: 2},
	}}
	routing := &fakeRouting{
		matrixResp: domain.MatrixResponse{SourcesToTargets: [][]domain.MatrixCell{
			{{Time: 0}, {Time: 100}, {Time: 200}},
			{{Time: 100}, {Time: 0}, {Time: 50}},
			{{Time: 200}, {Time: 50}, {Time: 0}},
		}},
		routeResp: domain.RouteResponse{},
	}
	optimizer := &fakeOptimizer{tour: domain.TourResponse{Tour: []int{0, 2, 1}}}
	svc, _ := newTestDispatchService(t, repo, geocoder, routing, optimizer)

	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	resp, err := svc.NextDestination(context.Background(), 1, domain.PhasePickup, now)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, resp.Status)
	require.Equal(t, domain.AlgorithmLKH, resp.AlgorithmUsed)
	// tour[1:] = [2,1], first non-zero index is 2 -> outstanding[1] -> parcel 11.
	require.Equal(t, uint64(11), resp.NextDestination.ParcelID)
}

func TestNextDestinationOptimizerFailureFallsBackToNearest(t *testing.T) {
	repo := &fakeRepo{
		pendingPickups: map[uint64][]domain.Parcel{
			1: {{ID: 10, RecipientAddr: "addr-a"}},
		},
	}
	geocoder := &fakeGeocoder{byAddress: map[string]domain.GeocodeResult{"addr-a": {Lat: 1, Lon: 1}}}
	routing := &fakeRouting{
		matrixResp: domain.MatrixResponse{SourcesToTargets: [][]domain.MatrixCell{{{}, {}}, {{}, {}}}},
	}
	svc, _ := newTestDispatchService(t, repo, geocoder, routing, &fakeOptimizer{err: errBoom})

	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	resp, err := svc.NextDestination(context.Background(), 1, domain.PhasePickup, now)
	require.NoError(t, err)
	require.Equal(t, domain.AlgorithmNearest, resp.AlgorithmUsed)
	require.Equal(t, uint64(10), resp.NextDestination.ParcelID)
}

func TestCompletePickupRejectsWrongDriver(t *testing.T) {
	owner := uint64(2)
	repo := &fakeRepo{parcels: map[uint64]*domain.Parcel{
		1: {ID: 1, PickupDriverID: &owner},
	}}
	svc, _ := newTestDispatchService(t, repo, &fakeGeocoder{}, &fakeRouting{}, &fakeOptimizer{})

	_, err := svc.CompletePickup(context.Background(), 1, 1)
	require.Error(t, err)
	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domain.ErrAuthorization, domainErr.Kind)
}

func TestHubArrivedRejectsWithOutstandingStops(t *testing.T) {
	repo := &fakeRepo{pendingPickups: map[uint64][]domain.Parcel{
		1: {{ID: 1}, {ID: 2}},
	}}
	svc, _ := newTestDispatchService(t, repo, &fakeGeocoder{}, &fakeRouting{}, &fakeOptimizer{})

	now := time.Date(2026, 7, 29, 10, 0, 0, 0, time.FixedZone("KST", 9*3600))
	_, err := svc.HubArrived(context.Background(), 1, domain.PhasePickup, now)
	require.Error(t, err)
	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domain.ErrValidation, domainErr.Kind)
	require.Equal(t, 2, domainErr.Details["remaining_pickups"])
}

func TestHubArrivedSucceedsWithNoOutstandingStops(t *testing.T) {
	repo := &fakeRepo{pendingPickups: map[uint64][]domain.Parcel{1: {}}}
	svc, hub := newTestDispatchService(t, repo, &fakeGeocoder{}, &fakeRouting{}, &fakeOptimizer{})

	now := time.Date(2026, 7, 29, 14, 0, 0, 0, time.FixedZone("KST", 9*3600))
	resp, err := svc.HubArrived(context.Background(), 1, domain.PhasePickup, now)
	require.NoError(t, err)
	require.Equal(t, domain.HubLocation, resp.Location)
	require.True(t, hub.IsAtHub(1))
}

var errBoom = &domain.Error{Kind: domain.ErrExternalUnavailable, Message: "boom"}
