package inspection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

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

// FindDetail returns the detail for (vehicle, system) with its points and
// images preloaded, or gorm.ErrRecordNotFound.
func (r *Repo) FindDetail(ctx context.Context, vehicleID string, system SystemKind) (*Detail, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var d Detail
	err := db.Preload("Points", func(q *gorm.DB) *gorm.DB { return q.Order("name") }).
		Preload("Points.Images").
		Where("vehicle_id = ? AND system_kind = ?", vehicleID, system).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// EnsureDetail returns the existing detail for (vehicle, system) or creates
// one attributed to actor. A concurrent creator losing the unique-index race
// falls back to reading the winner's row.
func (r *Repo) EnsureDetail(ctx context.Context, vehicleID string, system SystemKind, actor string) (*Detail, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}

	d, err := r.FindDetail(ctx, vehicleID, system)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &Detail{ID: uuid.New().String(), VehicleID: vehicleID, System: system, ReviewedBy: actor}
	if err := db.Create(created).Error; err != nil {
		if isDuplicateErr(err) {
			return r.FindDetail(ctx, vehicleID, system)
		}
		return nil, err
	}
	created.Points = nil
	return created, nil
}

// FindPoint returns the named point of a detail with images preloaded, or
// gorm.ErrRecordNotFound.
func (r *Repo) FindPoint(ctx context.Context, detailID, name string) (*Point, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Point
	err := db.Preload("Images").
		Where("detail_id = ? AND name = ?", detailID, name).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) CreatePoint(ctx context.Context, p *Point) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(p).Error
}

func (r *Repo) SavePoint(ctx context.Context, p *Point) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Omit("Images").Save(p).Error
}

func (r *Repo) AddImage(ctx context.Context, img *PointImage) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(img).Error
}

// PointsForVehicle returns every recorded point across the vehicle's details,
// grouped by system.
func (r *Repo) PointsForVehicle(ctx context.Context, vehicleID string) (map[SystemKind][]Point, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var details []Detail
	err := db.Preload("Points").Preload("Points.Images").
		Where("vehicle_id = ?", vehicleID).
		Find(&details).Error
	if err != nil {
		return nil, err
	}
	out := make(map[SystemKind][]Point, len(details))
	for _, d := range details {
		out[d.System] = d.Points
	}
	return out, nil
}

// isDuplicateErr matches unique-constraint violations across the MySQL and
// SQLite drivers (not all of them translate to gorm.ErrDuplicatedKey).
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}
