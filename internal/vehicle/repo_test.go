package vehicle

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/db"
	"github.com/VehiCheck/VehiCheck/internal/profile"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "vehicles.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&Vehicle{}, &profile.Company{}, &profile.User{}, &profile.UserProfile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newVehicle(owner string, registered time.Time) *Vehicle {
	return &Vehicle{
		ID:           uuid.New().String(),
		Plate:        "ABC123",
		Brand:        "Toyota",
		Model:        "Corolla",
		Color:        "Rojo",
		FuelType:     "Gasolina",
		EngineNumber: "EN-1",
		OwnerID:      owner,
		RegisteredAt: registered,
	}
}

func TestCreateAssignsSequentialOrderNumbers(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		v := newVehicle("tech-1", time.Now())
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if v.OrderNumber != uint(i) {
			t.Fatalf("order number = %d, want %d", v.OrderNumber, i)
		}
	}
}

func TestConcurrentCreateAssignsUniqueOrderNumbers(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewRepo(gdb)
	ctx := context.Background()

	const workers = 4
	const perWorker = 3

	var wg sync.WaitGroup
	errCh := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := repo.Create(ctx, newVehicle("tech-1", time.Now())); err != nil {
					errCh <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent create: %v", err)
	}

	var vehicles []Vehicle
	if err := gdb.Find(&vehicles).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(vehicles) != workers*perWorker {
		t.Fatalf("created %d vehicles, want %d", len(vehicles), workers*perWorker)
	}
	seen := make(map[uint]bool, len(vehicles))
	for _, v := range vehicles {
		if seen[v.OrderNumber] {
			t.Fatalf("order number %d assigned twice", v.OrderNumber)
		}
		seen[v.OrderNumber] = true
	}
}

func TestDuplicateOrderNumberRecognized(t *testing.T) {
	gdb := newTestDB(t)
	ctx := context.Background()

	v := newVehicle("tech-1", time.Now())
	v.OrderNumber = 1
	if err := gdb.WithContext(ctx).Create(v).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	dup := newVehicle("tech-1", time.Now())
	dup.OrderNumber = 1
	err := gdb.WithContext(ctx).Create(dup).Error
	if err == nil {
		t.Fatalf("duplicate order number insert succeeded")
	}
	// The retry loop in Create keys off this classification.
	if !isDuplicateErr(err) {
		t.Fatalf("driver error not recognized as duplicate: %v", err)
	}
}

func TestListScoping(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewRepo(gdb)
	ctx := context.Background()

	companyA := "company-a"
	companyB := "company-b"
	seedProfile := func(userID, role string, companyID *string) {
		if err := gdb.Create(&profile.UserProfile{
			ID:        uuid.New().String(),
			UserID:    userID,
			Role:      role,
			CompanyID: companyID,
		}).Error; err != nil {
			t.Fatalf("seed profile: %v", err)
		}
	}
	seedProfile("tech-a1", profile.RoleTechnician, &companyA)
	seedProfile("tech-a2", profile.RoleTechnician, &companyA)
	seedProfile("tech-b1", profile.RoleTechnician, &companyB)

	for _, owner := range []string{"tech-a1", "tech-a1", "tech-a2", "tech-b1"} {
		if err := repo.Create(ctx, newVehicle(owner, time.Now())); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cases := []struct {
		name string
		id   access.Identity
		want int
	}{
		{"superuser sees all", access.Identity{UserID: "root", IsSuperuser: true}, 4},
		{"technician sees own", access.Identity{UserID: "tech-a1", HasProfile: true, Role: profile.RoleTechnician}, 2},
		{"supervisor sees company", access.Identity{UserID: "boss-a", HasProfile: true, Role: profile.RoleSupervisor, CompanyID: companyA}, 3},
		{"manager sees company", access.Identity{UserID: "mgr-b", HasProfile: true, Role: profile.RoleManager, CompanyID: companyB}, 1},
		{"no profile sees nothing", access.Identity{UserID: "tech-a1"}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vs, total, err := repo.List(ctx, access.ForIdentity(c.id), ListFilter{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(vs) != c.want || total != int64(c.want) {
				t.Fatalf("got %d vehicles (total %d), want %d", len(vs), total, c.want)
			}
		})
	}
}

func TestListFilters(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	day := func(offset int) time.Time {
		return time.Date(2026, 8, 10+offset, 12, 0, 0, 0, time.UTC)
	}
	seed := []struct {
		plate, brand, model string
		registered          time.Time
	}{
		{"AAA111", "Toyota", "Hilux", day(0)},
		{"BBB222", "Nissan", "Frontier", day(1)},
		{"CCC333", "Toyota", "Corolla", day(2)},
	}
	for _, s := range seed {
		v := newVehicle("tech-1", s.registered)
		v.Plate, v.Brand, v.Model = s.plate, s.brand, s.model
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	all := access.ForIdentity(access.Identity{IsSuperuser: true})

	vs, _, err := repo.List(ctx, all, ListFilter{Query: "toyota"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("brand search returned %d, want 2", len(vs))
	}

	// Search also matches the order number rendered as text.
	vs, _, err = repo.List(ctx, all, ListFilter{Query: "2"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(vs) != 2 { // order number 2 plus plate BBB222
		t.Fatalf("order number search returned %d, want 2", len(vs))
	}

	from, to := day(1), day(1)
	vs, _, err = repo.List(ctx, all, ListFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(vs) != 1 || vs[0].Plate != "BBB222" {
		t.Fatalf("date filter returned %d vehicles", len(vs))
	}
}

func TestListPaginationAndOrdering(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < PageSize+3; i++ {
		v := newVehicle("tech-1", base.Add(time.Duration(i)*time.Hour))
		v.Plate = fmt.Sprintf("P%03d", i)
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	all := access.ForIdentity(access.Identity{IsSuperuser: true})

	page1, total, err := repo.List(ctx, all, ListFilter{Page: 1})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if total != int64(PageSize+3) || len(page1) != PageSize {
		t.Fatalf("page 1: %d rows, total %d", len(page1), total)
	}
	// Newest first.
	if page1[0].Plate != fmt.Sprintf("P%03d", PageSize+2) {
		t.Fatalf("unexpected first row %s", page1[0].Plate)
	}

	page2, _, err := repo.List(ctx, all, ListFilter{Page: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2) != 3 {
		t.Fatalf("page 2: %d rows, want 3", len(page2))
	}
}
