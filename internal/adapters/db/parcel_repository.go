// Package db holds the gorm-backed implementation of domain.Repository:
// simple .Where().First()/.Find() methods, one gorm.DB thread through the
// whole adapter.
package db

import (
	"context"
	"time"

	"parcel-dispatch/internal/domain"

	"gorm.io/gorm"
)

type parcelRepository struct {
	db *gorm.DB
}

func NewParcelRepository(db *gorm.DB) domain.Repository {
	return &parcelRepository{db: db}
}

func (r *parcelRepository) FindParcel(ctx context.Context, id uint64) (*domain.Parcel, error) {
	var parcel domain.Parcel
	err := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&parcel).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internalf(err, "find parcel %d", id)
	}
	return &parcel, nil
}

func (r *parcelRepository) PendingPickupsForDriver(ctx context.Context, driverID uint64) ([]domain.Parcel, error) {
	var parcels []domain.Parcel
	today := startOfDay(time.Now())
	err := r.db.WithContext(ctx).
		Where("pickup_driver_id = ? AND status = ? AND is_deleted = ? AND (pickup_scheduled_date IS NULL OR pickup_scheduled_date <= ?)",
			driverID, domain.StatusPickupPending, false, today).
		Order("created_at DESC").
		Find(&parcels).Error
	if err != nil {
		return nil, domain.Internalf(err, "pending pickups for driver %d", driverID)
	}
	return parcels, nil
}

func (r *parcelRepository) PendingDeliveriesForDriver(ctx context.Context, driverID uint64) ([]domain.Parcel, error) {
	var parcels []domain.Parcel
	err := r.db.WithContext(ctx).
		Where("delivery_driver_id = ? AND status = ? AND is_deleted = ?", driverID, domain.StatusDeliveryPending, false).
		Order("created_at DESC").
		Find(&parcels).Error
	if err != nil {
		return nil, domain.Internalf(err, "pending deliveries for driver %d", driverID)
	}
	return parcels, nil
}

// LastCompletedStopLocation returns the most recent completed parcel's
// address in the current calendar day for the driver in the given phase.
func (r *parcelRepository) LastCompletedStopLocation(ctx context.Context, driverID uint64, phase domain.Phase) (string, bool, error) {
	var parcel domain.Parcel
	today := startOfDay(time.Now())

	query := r.db.WithContext(ctx).Where("is_deleted = ?", false)
	if phase == domain.PhaseDelivery {
		query = query.Where("delivery_driver_id = ? AND status = ? AND delivery_completed_at >= ?", driverID, domain.StatusDeliveryCompleted, today).
			Order("delivery_completed_at DESC")
	} else {
		query = query.Where("pickup_driver_id = ? AND status IN ? AND pickup_completed_at >= ?", driverID,
			[]domain.ParcelStatus{domain.StatusPickupCompleted, domain.StatusDeliveryPending, domain.StatusDeliveryCompleted}, today).
			Order("pickup_completed_at DESC")
	}

	err := query.First(&parcel).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.Internalf(err, "last completed stop for driver %d", driverID)
	}
	return parcel.RecipientAddr, true, nil
}

func (r *parcelRepository) AssignPickup(ctx context.Context, parcelID, driverID uint64, scheduledDate time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Parcel{}).
		Where("id = ? AND is_deleted = ?", parcelID, false).
		Updates(map[string]any{
			"pickup_driver_id":       driverID,
			"pickup_scheduled_date":  scheduledDate,
			"is_next_pickup_target":  true,
		})
	if result.Error != nil {
		return false, domain.Internalf(result.Error, "assign pickup %d to driver %d", parcelID, driverID)
	}
	return result.RowsAffected == 1, nil
}

func (r *parcelRepository) AssignDelivery(ctx context.Context, parcelID, driverID uint64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Parcel{}).
		Where("id = ? AND status = ?", parcelID, domain.StatusDeliveryPending).
		Updates(map[string]any{
			"delivery_driver_id":       driverID,
			"is_next_delivery_target":  true,
		})
	if result.Error != nil {
		return false, domain.Internalf(result.Error, "assign delivery %d to driver %d", parcelID, driverID)
	}
	return result.RowsAffected == 1, nil
}

func (r *parcelRepository) CompletePickup(ctx context.Context, parcelID uint64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Parcel{}).
		Where("id = ? AND status = ?", parcelID, domain.StatusPickupPending).
		Updates(map[string]any{
			"status":               domain.StatusPickupCompleted,
			"pickup_completed_at":  time.Now(),
			"is_next_pickup_target": false,
		})
	if result.Error != nil {
		return false, domain.Internalf(result.Error, "complete pickup %d", parcelID)
	}
	return result.RowsAffected == 1, nil
}

func (r *parcelRepository) CompleteDelivery(ctx context.Context, parcelID uint64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Parcel{}).
		Where("id = ? AND status = ?", parcelID, domain.StatusDeliveryPending).
		Updates(map[string]any{
			"status":                  domain.StatusDeliveryCompleted,
			"delivery_completed_at":   time.Now(),
			"is_next_delivery_target": false,
		})
	if result.Error != nil {
		return false, domain.Internalf(result.Error, "complete delivery %d", parcelID)
	}
	return result.RowsAffected == 1, nil
}

func (r *parcelRepository) ConvertPickupToDelivery(ctx context.Context, parcelID uint64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Parcel{}).
		Where("id = ? AND status = ?", parcelID, domain.StatusPickupCompleted).
		Update("status", domain.StatusDeliveryPending)
	if result.Error != nil {
		return false, domain.Internalf(result.Error, "convert pickup %d to delivery", parcelID)
	}
	return result.RowsAffected == 1, nil
}

func (r *parcelRepository) TodayCompletedPickupsUnclaimedForDelivery(ctx context.Context) ([]domain.Parcel, error) {
	var parcels []domain.Parcel
	today := startOfDay(time.Now())
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_deleted = ? AND pickup_completed_at >= ? AND delivery_driver_id IS NULL",
			domain.StatusPickupCompleted, false, today).
		Find(&parcels).Error
	if err != nil {
		return nil, domain.Internalf(err, "today's completed pickups unclaimed for delivery")
	}
	return parcels, nil
}

func (r *parcelRepository) TodayUnassignedDeliveries(ctx context.Context) ([]domain.Parcel, error) {
	var parcels []domain.Parcel
	today := startOfDay(time.Now())
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_deleted = ? AND delivery_driver_id IS NULL AND pickup_completed_at >= ?",
			domain.StatusDeliveryPending, false, today).
		Find(&parcels).Error
	if err != nil {
		return nil, domain.Internalf(err, "today's unassigned deliveries")
	}
	return parcels, nil
}

func (r *parcelRepository) DailyStatusCounts(ctx context.Context) (map[domain.ParcelStatus]int64, error) {
	type row struct {
		Status domain.ParcelStatus
		Count  int64
	}
	var rows []row
	today := startOfDay(time.Now())
	err := r.db.WithContext(ctx).Model(&domain.Parcel{}).
		Select("status, count(*) as count").
		Where("created_at >= ? AND is_deleted = ?", today, false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, domain.Internalf(err, "daily status counts")
	}
	counts := make(map[domain.ParcelStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *parcelRepository) AnyOutstandingPickups(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Parcel{}).
		Where("status = ? AND is_deleted = ?", domain.StatusPickupPending, false).
		Count(&count).Error
	if err != nil {
		return false, domain.Internalf(err, "count outstanding pickups")
	}
	return count > 0, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
