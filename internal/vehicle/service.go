package vehicle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/google/uuid"
)

// Service implements vehicle registration and scoped retrieval on top of the
// repo.
type Service struct {
	repo *Repo
	log  logger.Logger
}

func NewService(repo *Repo, log logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RegisterInput carries the registration form. Brand is the only required
// field; blank descriptive fields fall back to their placeholder defaults.
type RegisterInput struct {
	Plate        string
	Brand        string
	Model        string
	Color        string
	FuelType     string
	EngineNumber string
	ImageBase64  string
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

// Register creates a vehicle owned by the acting identity.
func (s *Service) Register(ctx context.Context, id access.Identity, in RegisterInput) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	brand := strings.TrimSpace(in.Brand)
	if brand == "" {
		return nil, fmt.Errorf("brand is required")
	}

	v := &Vehicle{
		ID:           uuid.New().String(),
		Plate:        strings.ToUpper(strings.TrimSpace(in.Plate)),
		Brand:        brand,
		Model:        orDefault(in.Model, "Sin modelo"),
		Color:        orDefault(in.Color, "Sin color"),
		FuelType:     orDefault(in.FuelType, "Sin especificar"),
		EngineNumber: orDefault(in.EngineNumber, "Desconocido"),
		ImageBase64:  in.ImageBase64,
		OwnerID:      id.UserID,
		RegisteredAt: time.Now(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	if s.log != nil {
		s.log.Infof("vehicle %s registered with order number %d by %s", v.ID, v.OrderNumber, v.OwnerID)
	}
	return v, nil
}

// Get returns the vehicle only when the identity's scope can see it.
func (s *Service) Get(ctx context.Context, id access.Identity, vehicleID string) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	db := s.repo.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	scope := access.ForIdentity(id)
	var vehicles []Vehicle
	q := scope.Apply(db.Model(&Vehicle{})).Where("id = ?", vehicleID)
	if err := q.Limit(1).Find(&vehicles).Error; err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, ErrNotVisible
	}
	return &vehicles[0], nil
}

// ErrNotVisible covers both a missing vehicle and one outside the caller's
// scope; callers must not be able to tell the difference.
var ErrNotVisible = fmt.Errorf("vehicle not found")

// List returns the identity's visible vehicles with filters and pagination.
func (s *Service) List(ctx context.Context, id access.Identity, f ListFilter) ([]Vehicle, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, access.ForIdentity(id), f)
}
