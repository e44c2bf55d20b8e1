package report

import (
	"context"
	"fmt"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/inspection"
	"github.com/VehiCheck/VehiCheck/internal/vehicle"
	"gorm.io/gorm"
)

// Repo runs the cross-table queries the dashboard needs. It reads the vehicle
// and inspection tables but writes nothing.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// CountPendingMaintenance counts visible vehicles with at least one rejected
// inspection point.
func (r *Repo) CountPendingMaintenance(ctx context.Context, scope access.Scope) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := scope.Apply(db.Model(&vehicle.Vehicle{})).
		Where(`EXISTS (
			SELECT 1 FROM inspection_details d
			JOIN inspection_points p ON p.detail_id = d.id
			WHERE d.vehicle_id = vehicles.id AND p.status = ?
		)`, inspection.StatusRejected).
		Count(&total).Error
	return total, err
}

// DayCount is one point of the registrations-per-day series.
type DayCount struct {
	Day   string `json:"dia"` // YYYY-MM-DD
	Count int64  `json:"total"`
}

// RegistrationsLastWeek returns a zero-filled 7-day series ending today, in
// chronological order.
func (r *Repo) RegistrationsLastWeek(ctx context.Context, scope access.Scope, vehicles *vehicle.Repo, now time.Time) ([]DayCount, error) {
	start := now.AddDate(0, 0, -6)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	byDay, err := vehicles.RegistrationsByDay(ctx, scope, start)
	if err != nil {
		return nil, err
	}

	series := make([]DayCount, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, DayCount{Day: day, Count: byDay[day]})
	}
	return series, nil
}
