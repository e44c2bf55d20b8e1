package inspection

import (
	"context"
	"errors"
	"fmt"

	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service runs the inspection workflow for a vehicle's systems.
type Service struct {
	repo *Repo
	log  logger.Logger
}

func NewService(repo *Repo, log logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// UpsertPointInput is a partial update to one checklist point. Nil fields are
// left unchanged; a non-nil empty observation clears the stored one. Images
// only accumulate.
type UpsertPointInput struct {
	Status      *Status
	Observation *string
	Images      []string
}

func (in UpsertPointInput) empty() bool {
	return in.Status == nil && in.Observation == nil && len(in.Images) == 0
}

// SystemView is a detail plus its points keyed by checklist name, padded with
// pending placeholders for points never touched.
type SystemView struct {
	System SystemKind
	Detail *Detail
	Points map[string]Point
}

// ViewSystem returns the current state of one system. A vehicle with no
// detail row yet gets an all-pending view without creating anything.
func (s *Service) ViewSystem(ctx context.Context, vehicleID string, system SystemKind) (*SystemView, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	view := &SystemView{System: system, Points: make(map[string]Point)}
	for _, spec := range Checklist(system) {
		view.Points[spec.Key] = Point{Name: spec.Key, Status: StatusPending}
	}

	d, err := s.repo.FindDetail(ctx, vehicleID, system)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	view.Detail = d
	for _, p := range d.Points {
		view.Points[p.Name] = p
	}
	return view, nil
}

// UpsertPoint applies a partial update to one point, creating the detail and
// point rows on first touch. The point name must belong to the system's
// checklist.
func (s *Service) UpsertPoint(ctx context.Context, vehicleID string, system SystemKind, name, actor string, in UpsertPointInput) (*Point, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !IsChecklistItem(system, name) {
		return nil, fmt.Errorf("point %q is not part of system %s", name, system)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", *in.Status)
	}

	d, err := s.repo.EnsureDetail(ctx, vehicleID, system, actor)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindPoint(ctx, d.ID, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = &Point{
			ID:       uuid.New().String(),
			DetailID: d.ID,
			Name:     name,
			Status:   StatusPending,
		}
		if err := s.repo.CreatePoint(ctx, p); err != nil {
			if !isDuplicateErr(err) {
				return nil, err
			}
			if p, err = s.repo.FindPoint(ctx, d.ID, name); err != nil {
				return nil, err
			}
		}
	case err != nil:
		return nil, err
	}

	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Observation != nil {
		p.Observation = *in.Observation
	}
	p.ReviewedBy = actor
	if err := s.repo.SavePoint(ctx, p); err != nil {
		return nil, err
	}

	for _, img := range in.Images {
		if img == "" {
			continue
		}
		rec := &PointImage{ID: uuid.New().String(), PointID: p.ID, Base64: img, UploadedBy: actor}
		if err := s.repo.AddImage(ctx, rec); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, *rec)
	}

	if s.log != nil {
		s.log.Infof("point %s/%s on vehicle %s updated by %s", system, name, vehicleID, actor)
	}
	return p, nil
}

// SubmitSystem applies a whole system form at once. Entries with nothing to
// apply are skipped; an unknown checklist key rejects the whole submission
// before anything is written.
func (s *Service) SubmitSystem(ctx context.Context, vehicleID string, system SystemKind, actor string, items map[string]UpsertPointInput) (*SystemView, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	for name := range items {
		if !IsChecklistItem(system, name) {
			return nil, fmt.Errorf("point %q is not part of system %s", name, system)
		}
	}
	// Apply in checklist order for stable behavior.
	for _, spec := range Checklist(system) {
		in, ok := items[spec.Key]
		if !ok || in.empty() {
			continue
		}
		if _, err := s.UpsertPoint(ctx, vehicleID, system, spec.Key, actor, in); err != nil {
			return nil, err
		}
	}
	return s.ViewSystem(ctx, vehicleID, system)
}
