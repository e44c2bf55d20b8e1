package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/db"
	"github.com/VehiCheck/VehiCheck/internal/inspection"
	"github.com/VehiCheck/VehiCheck/internal/profile"
	"github.com/VehiCheck/VehiCheck/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = gdb.AutoMigrate(
		&vehicle.Vehicle{},
		&inspection.Detail{}, &inspection.Point{}, &inspection.PointImage{},
		&profile.Company{}, &profile.User{}, &profile.UserProfile{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedVehicle(t *testing.T, gdb *gorm.DB, owner string, registered time.Time) *vehicle.Vehicle {
	t.Helper()
	v := &vehicle.Vehicle{
		ID:           uuid.New().String(),
		Brand:        "Toyota",
		Model:        "Hilux",
		OwnerID:      owner,
		RegisteredAt: registered,
	}
	if err := vehicle.NewRepo(gdb).Create(context.Background(), v); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return v
}

func markRejected(t *testing.T, svc *inspection.Service, vehicleID string) {
	t.Helper()
	st := inspection.StatusRejected
	_, err := svc.UpsertPoint(context.Background(), vehicleID, inspection.SystemMotor, "fugas", "tech-1",
		inspection.UpsertPointInput{Status: &st})
	if err != nil {
		t.Fatalf("mark rejected: %v", err)
	}
}

func TestCountPendingMaintenance(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewRepo(gdb)
	insp := inspection.NewService(inspection.NewRepo(gdb), nil)
	ctx := context.Background()
	now := time.Now()

	v1 := seedVehicle(t, gdb, "tech-1", now)
	seedVehicle(t, gdb, "tech-1", now)
	v3 := seedVehicle(t, gdb, "tech-2", now)

	markRejected(t, insp, v1.ID)
	markRejected(t, insp, v3.ID)

	all := access.ForIdentity(access.Identity{IsSuperuser: true})
	n, err := repo.CountPendingMaintenance(ctx, all)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("pending = %d, want 2", n)
	}

	// The owner scope only counts the technician's own vehicle.
	own := access.ForIdentity(access.Identity{UserID: "tech-1", HasProfile: true, Role: profile.RoleTechnician})
	n, err = repo.CountPendingMaintenance(ctx, own)
	if err != nil {
		t.Fatalf("count scoped: %v", err)
	}
	if n != 1 {
		t.Fatalf("scoped pending = %d, want 1", n)
	}
}

func TestRegistrationsLastWeekZeroFilled(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewRepo(gdb)
	vrepo := vehicle.NewRepo(gdb)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	seedVehicle(t, gdb, "tech-1", now)                     // today
	seedVehicle(t, gdb, "tech-1", now.AddDate(0, 0, -2))   // two days ago
	seedVehicle(t, gdb, "tech-1", now.AddDate(0, 0, -2))   // same day
	seedVehicle(t, gdb, "tech-1", now.AddDate(0, 0, -10))  // outside the window

	all := access.ForIdentity(access.Identity{IsSuperuser: true})
	series, err := repo.RegistrationsLastWeek(ctx, all, vrepo, now)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("series has %d days, want 7", len(series))
	}
	if series[0].Day != "2026-08-24" || series[6].Day != "2026-08-30" {
		t.Fatalf("window is [%s, %s]", series[0].Day, series[6].Day)
	}
	var total int64
	for _, d := range series {
		total += d.Count
	}
	if total != 3 {
		t.Fatalf("window total = %d, want 3", total)
	}
	if series[4].Count != 2 {
		t.Fatalf("two-days-ago count = %d, want 2", series[4].Count)
	}
	if series[6].Count != 1 {
		t.Fatalf("today count = %d, want 1", series[6].Count)
	}
}

func TestBuildDashboard(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewRepo(gdb)
	vrepo := vehicle.NewRepo(gdb)
	vsvc := vehicle.NewService(vrepo, nil)
	irepo := inspection.NewRepo(gdb)
	insp := inspection.NewService(irepo, nil)
	svc := NewService(repo, vsvc, vrepo, irepo)

	now := time.Now()
	v := seedVehicle(t, gdb, "tech-1", now)
	seedVehicle(t, gdb, "tech-1", now.AddDate(0, 0, -3))
	markRejected(t, insp, v.ID)

	id := access.Identity{UserID: "root", IsSuperuser: true}
	d, err := svc.BuildDashboard(context.Background(), id, now)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalVehicles != 2 {
		t.Fatalf("total = %d", d.TotalVehicles)
	}
	if d.RegisteredToday != 1 {
		t.Fatalf("today = %d", d.RegisteredToday)
	}
	if d.PendingMaintenance != 1 {
		t.Fatalf("pending = %d", d.PendingMaintenance)
	}
	if !d.CanViewOptions {
		t.Fatalf("superuser should see admin options")
	}
}

func TestFirstInspectionEndToEnd(t *testing.T) {
	gdb := newTestDB(t)
	irepo := inspection.NewRepo(gdb)
	insp := inspection.NewService(irepo, nil)
	ctx := context.Background()

	// First vehicle in an empty registry gets order number 1.
	v := seedVehicle(t, gdb, "tech-1", time.Now())
	if v.OrderNumber != 1 {
		t.Fatalf("order number = %d, want 1", v.OrderNumber)
	}

	// One good engine point, the other two left blank.
	good := inspection.StatusGood
	if _, err := insp.SubmitSystem(ctx, v.ID, inspection.SystemMotor, "tech-1", map[string]inspection.UpsertPointInput{
		"ruidos": {Status: &good},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	points, err := irepo.PointsForVehicle(ctx, v.ID)
	if err != nil {
		t.Fatalf("points: %v", err)
	}
	if got := inspection.TotalPoints(points); got != 1 {
		t.Fatalf("total points = %d, want 1", got)
	}
	var all []inspection.Point
	for _, ps := range points {
		all = append(all, ps...)
	}
	if got := inspection.ApprovalPercentage(all); got != 100 {
		t.Fatalf("approval = %v, want 100", got)
	}
}

func TestBuildConsolidatedReport(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewRepo(gdb)
	vrepo := vehicle.NewRepo(gdb)
	vsvc := vehicle.NewService(vrepo, nil)
	irepo := inspection.NewRepo(gdb)
	insp := inspection.NewService(irepo, nil)
	svc := NewService(repo, vsvc, vrepo, irepo)
	ctx := context.Background()

	v := seedVehicle(t, gdb, "tech-1", time.Now())
	good := inspection.StatusGood
	obs := "algo de óxido"
	if _, err := insp.UpsertPoint(ctx, v.ID, inspection.SystemBody, "estado_pintura", "tech-1",
		inspection.UpsertPointInput{Status: &good, Observation: &obs, Images: []string{"img-1"}}); err != nil {
		t.Fatalf("seed point: %v", err)
	}

	rep, err := svc.Build(ctx, access.Identity{UserID: "root", IsSuperuser: true}, v.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if rep.Overall != inspection.RollupApproved {
		t.Fatalf("overall = %q", rep.Overall)
	}
	if len(rep.Systems) != len(inspection.SystemOrder) {
		t.Fatalf("report has %d systems", len(rep.Systems))
	}

	body := rep.Systems[4] // carroceria in canonical order
	if body.System != inspection.SystemBody {
		t.Fatalf("system 4 = %s", body.System)
	}
	found := false
	for _, p := range body.Points {
		if p.Name == "estado_pintura" {
			found = true
			if p.Status != inspection.StatusGood || p.Observation != obs || len(p.Images) != 1 {
				t.Fatalf("unexpected point: %+v", p)
			}
		} else if p.Status != inspection.StatusPending {
			t.Fatalf("untouched point %s has status %q", p.Name, p.Status)
		}
	}
	if !found {
		t.Fatalf("estado_pintura missing from the report")
	}

	// A vehicle outside the scope yields not found.
	tech2 := access.Identity{UserID: "tech-2", HasProfile: true, Role: profile.RoleTechnician}
	if _, err := svc.Build(ctx, tech2, v.ID); err == nil {
		t.Fatalf("expected visibility rejection")
	}
}
