package report

import (
	"context"
	"fmt"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/inspection"
	"github.com/VehiCheck/VehiCheck/internal/vehicle"
)

// Service assembles the consolidated vehicle report and the dashboard.
type Service struct {
	repo        *Repo
	vehicles    *vehicle.Service
	vehicleRepo *vehicle.Repo
	inspections *inspection.Repo
}

func NewService(repo *Repo, vehicles *vehicle.Service, vehicleRepo *vehicle.Repo, inspections *inspection.Repo) *Service {
	return &Service{repo: repo, vehicles: vehicles, vehicleRepo: vehicleRepo, inspections: inspections}
}

// PointReport is one checklist item in the consolidated report, including
// items never recorded.
type PointReport struct {
	Name        string            `json:"nombre"`
	Label       string            `json:"etiqueta"`
	Status      inspection.Status `json:"estado"`
	Observation string            `json:"observacion,omitempty"`
	Images      []string          `json:"imagenes,omitempty"`
}

// SystemReport is one system's section of the consolidated report.
type SystemReport struct {
	System   inspection.SystemKind `json:"sistema"`
	Label    string                `json:"etiqueta"`
	Icon     string                `json:"icono"`
	Rollup   inspection.Rollup     `json:"estado"`
	Color    string                `json:"color"`
	Approval float64               `json:"porcentaje_aprobado"`
	Points   []PointReport         `json:"puntos"`
}

// VehicleReport is the full consolidated inspection report for one vehicle.
type VehicleReport struct {
	Vehicle     vehicle.Vehicle            `json:"vehiculo"`
	GeneratedAt time.Time                  `json:"generado_en"`
	Overall     inspection.Rollup          `json:"estado_general"`
	Color       string                     `json:"color"`
	Overview    []inspection.SystemSummary `json:"resumen"`
	Systems     []SystemReport             `json:"sistemas"`
	Counts      map[inspection.Status]int  `json:"conteo_por_estado"`
}

// Build assembles the consolidated report for a vehicle visible to the
// identity.
func (s *Service) Build(ctx context.Context, id access.Identity, vehicleID string) (*VehicleReport, error) {
	if s == nil || s.inspections == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	v, err := s.vehicles.Get(ctx, id, vehicleID)
	if err != nil {
		return nil, err
	}

	points, err := s.inspections.PointsForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	rep := &VehicleReport{
		Vehicle:     *v,
		GeneratedAt: time.Now(),
		Overall:     inspection.OverallRollup(points),
		Overview:    inspection.SystemsOverview(points),
		Counts:      map[inspection.Status]int{},
	}
	rep.Color = rep.Overall.Color()

	var all []inspection.Point
	for _, ps := range points {
		all = append(all, ps...)
	}
	rep.Counts = inspection.CountByStatus(all)

	for _, k := range inspection.SystemOrder {
		recorded := make(map[string]inspection.Point, len(points[k]))
		for _, p := range points[k] {
			recorded[p.Name] = p
		}
		sys := SystemReport{
			System:   k,
			Label:    k.Label(),
			Icon:     k.Icon(),
			Rollup:   inspection.RollupStatus(points[k]),
			Approval: inspection.ApprovalPercentage(points[k]),
		}
		sys.Color = sys.Rollup.Color()
		for _, spec := range inspection.Checklist(k) {
			pr := PointReport{Name: spec.Key, Label: spec.Label, Status: inspection.StatusPending}
			if p, ok := recorded[spec.Key]; ok {
				pr.Status = p.Status
				pr.Observation = p.Observation
				for _, img := range p.Images {
					pr.Images = append(pr.Images, img.Base64)
				}
			}
			sys.Points = append(sys.Points, pr)
		}
		rep.Systems = append(rep.Systems, sys)
	}
	return rep, nil
}

// Dashboard is the landing-page summary for an identity's visible fleet.
// Role and Company are display labels filled in at the HTTP boundary.
type Dashboard struct {
	TotalVehicles      int64      `json:"total_vehiculos"`
	RegisteredToday    int64      `json:"registrados_hoy"`
	PendingMaintenance int64      `json:"mantenimiento_pendiente"`
	LastWeek           []DayCount `json:"ultima_semana"`
	CanViewOptions     bool       `json:"puede_ver_opciones"`
	Role               string     `json:"cargo,omitempty"`
	Company            string     `json:"empresa,omitempty"`
}

// BuildDashboard computes the dashboard counters over the identity's scope.
func (s *Service) BuildDashboard(ctx context.Context, id access.Identity, now time.Time) (*Dashboard, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	scope := access.ForIdentity(id)

	total, err := s.vehicleRepo.Count(ctx, scope)
	if err != nil {
		return nil, err
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.vehicleRepo.CountRegisteredBetween(ctx, scope, midnight, midnight.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.CountPendingMaintenance(ctx, scope)
	if err != nil {
		return nil, err
	}

	week, err := s.repo.RegistrationsLastWeek(ctx, scope, s.vehicleRepo, now)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalVehicles:      total,
		RegisteredToday:    today,
		PendingMaintenance: pending,
		LastWeek:           week,
		CanViewOptions:     access.CanViewAdminOptions(id),
	}, nil
}
