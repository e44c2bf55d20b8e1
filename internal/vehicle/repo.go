package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"gorm.io/gorm"
)

// PageSize is the fixed vehicle listing page size.
const PageSize = 15

// orderNumberRetries bounds the max-plus-one retry loop under concurrent
// inserts racing on the unique order_number index.
const orderNumberRetries = 3

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

// Create persists a new vehicle, assigning the next order number inside a
// transaction. A duplicate-key collision with a concurrent creator is retried
// with a freshly read maximum.
func (r *Repo) Create(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if v == nil {
		return fmt.Errorf("vehicle is nil")
	}

	var lastErr error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		lastErr = db.Transaction(func(tx *gorm.DB) error {
			var maxOrder uint
			row := tx.Model(&Vehicle{}).Select("COALESCE(MAX(order_number), 0)").Row()
			if err := row.Scan(&maxOrder); err != nil {
				return err
			}
			v.OrderNumber = maxOrder + 1
			return tx.Create(v).Error
		})
		if lastErr == nil {
			return nil
		}
		if !isDuplicateErr(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("order number assignment kept colliding: %w", lastErr)
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// ListFilter carries the optional search refinements on top of the mandatory
// visibility scope. Dates are nil when absent or unparseable.
type ListFilter struct {
	Query string
	From  *time.Time
	To    *time.Time // inclusive date; the repo queries registered_at < To+24h
	Page  int
}

// List returns the scoped, filtered, paginated vehicle set ordered by
// registration date descending. The scope is applied before any filter.
func (r *Repo) List(ctx context.Context, scope access.Scope, f ListFilter) ([]Vehicle, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}

	q := scope.Apply(db.Model(&Vehicle{}))

	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("plate LIKE ? OR brand LIKE ? OR model LIKE ? OR CAST(order_number AS CHAR) LIKE ?",
			like, like, like, like)
	}
	if f.From != nil {
		q = q.Where("registered_at >= ?", f.From.Truncate(24*time.Hour))
	}
	if f.To != nil {
		q = q.Where("registered_at < ?", f.To.Truncate(24*time.Hour).Add(24*time.Hour))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	var vehicles []Vehicle
	if err := q.Order("registered_at DESC").Offset((page - 1) * PageSize).Limit(PageSize).Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

// Count returns the number of vehicles visible to the scope.
func (r *Repo) Count(ctx context.Context, scope access.Scope) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := scope.Apply(db.Model(&Vehicle{})).Count(&total).Error
	return total, err
}

// CountRegisteredBetween counts visible vehicles registered in [from, to).
func (r *Repo) CountRegisteredBetween(ctx context.Context, scope access.Scope, from, to time.Time) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := scope.Apply(db.Model(&Vehicle{})).
		Where("registered_at >= ? AND registered_at < ?", from, to).
		Count(&total).Error
	return total, err
}

// RegistrationsByDay returns visible registration counts per day since the
// given date, keyed by YYYY-MM-DD.
func (r *Repo) RegistrationsByDay(ctx context.Context, scope access.Scope, since time.Time) (map[string]int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}

	type dayCount struct {
		Day   string
		Count int64
	}
	var rows []dayCount
	err := scope.Apply(db.Model(&Vehicle{})).
		Select("DATE(registered_at) AS day, COUNT(*) AS count").
		Where("registered_at >= ?", since).
		Group("DATE(registered_at)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		// MySQL returns DATE as YYYY-MM-DD; some drivers append a time part.
		day := row.Day
		if len(day) > 10 {
			day = day[:10]
		}
		out[day] = row.Count
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
