package inspection

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/VehiCheck/VehiCheck/internal/common/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "inspections.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&Detail{}, &Point{}, &PointImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepo(gdb), nil)
}

func strPtr(s string) *string { return &s }

func statusPtr(s Status) *Status { return &s }

func TestUpsertPointCreatesDetailOnFirstTouch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.UpsertPoint(ctx, "veh-1", SystemMotor, "ruidos", "tech-1", UpsertPointInput{
		Status: statusPtr(StatusGood),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p.Status != StatusGood || p.ReviewedBy != "tech-1" {
		t.Fatalf("unexpected point: %+v", p)
	}

	// Touching a second point reuses the same detail row.
	p2, err := svc.UpsertPoint(ctx, "veh-1", SystemMotor, "fugas", "tech-1", UpsertPointInput{
		Status: statusPtr(StatusRejected),
	})
	if err != nil {
		t.Fatalf("upsert second point: %v", err)
	}
	if p2.DetailID != p.DetailID {
		t.Fatalf("points landed on different details: %s vs %s", p.DetailID, p2.DetailID)
	}
}

func TestUpsertPointRejectsUnknownName(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.UpsertPoint(context.Background(), "veh-1", SystemMotor, "estado_maleta", "tech-1", UpsertPointInput{}); err == nil {
		t.Fatalf("expected rejection for a point outside the checklist")
	}
}

func TestUpsertPointPartialUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpsertPoint(ctx, "veh-1", SystemBrakes, "frenado_correcto", "tech-1", UpsertPointInput{
		Status:      statusPtr(StatusObservation),
		Observation: strPtr("vibración leve al frenar"),
	}); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}

	// Absent status leaves the stored one alone; the observation changes.
	p, err := svc.UpsertPoint(ctx, "veh-1", SystemBrakes, "frenado_correcto", "tech-2", UpsertPointInput{
		Observation: strPtr("revisar pastillas"),
	})
	if err != nil {
		t.Fatalf("partial upsert: %v", err)
	}
	if p.Status != StatusObservation {
		t.Fatalf("status changed to %q", p.Status)
	}
	if p.Observation != "revisar pastillas" {
		t.Fatalf("observation = %q", p.Observation)
	}
	if p.ReviewedBy != "tech-2" {
		t.Fatalf("reviewer = %q", p.ReviewedBy)
	}

	// A present-but-empty observation clears it.
	p, err = svc.UpsertPoint(ctx, "veh-1", SystemBrakes, "frenado_correcto", "tech-2", UpsertPointInput{
		Observation: strPtr(""),
	})
	if err != nil {
		t.Fatalf("clearing upsert: %v", err)
	}
	if p.Observation != "" {
		t.Fatalf("observation not cleared: %q", p.Observation)
	}
}

func TestUpsertPointImagesAccumulate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpsertPoint(ctx, "veh-1", SystemBody, "estado_pintura", "tech-1", UpsertPointInput{
		Images: []string{"img-a"},
	}); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	p, err := svc.UpsertPoint(ctx, "veh-1", SystemBody, "estado_pintura", "tech-1", UpsertPointInput{
		Images: []string{"img-b", "img-c"},
	})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if len(p.Images) != 3 {
		t.Fatalf("got %d images, want 3", len(p.Images))
	}
}

func TestSubmitSystem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	view, err := svc.SubmitSystem(ctx, "veh-1", SystemMotor, "tech-1", map[string]UpsertPointInput{
		"ruidos":    {Status: statusPtr(StatusGood)},
		"fugas":     {Status: statusPtr(StatusGood)},
		"respuesta": {}, // nothing to apply, skipped
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.Points["ruidos"].Status != StatusGood {
		t.Fatalf("ruidos = %q", view.Points["ruidos"].Status)
	}
	// The skipped point has no row and shows as pending.
	if view.Points["respuesta"].ID != "" || view.Points["respuesta"].Status != StatusPending {
		t.Fatalf("respuesta should be an untouched placeholder: %+v", view.Points["respuesta"])
	}

	// Two of three recorded, both good: the system is still in review once
	// the last point lands with an observation.
	view, err = svc.SubmitSystem(ctx, "veh-1", SystemMotor, "tech-1", map[string]UpsertPointInput{
		"respuesta": {Status: statusPtr(StatusObservation), Observation: strPtr("tarda en responder")},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	var recorded []Point
	for _, spec := range Checklist(SystemMotor) {
		if p := view.Points[spec.Key]; p.ID != "" {
			recorded = append(recorded, p)
		}
	}
	if got := RollupStatus(recorded); got != RollupInReview {
		t.Fatalf("rollup = %q, want %q", got, RollupInReview)
	}
}

func TestSubmitSystemRejectsUnknownKeyBeforeWriting(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitSystem(ctx, "veh-1", SystemMotor, "tech-1", map[string]UpsertPointInput{
		"ruidos":   {Status: statusPtr(StatusGood)},
		"invalido": {Status: statusPtr(StatusGood)},
	})
	if err == nil {
		t.Fatalf("expected rejection")
	}

	// Nothing was written.
	view, err := svc.ViewSystem(ctx, "veh-1", SystemMotor)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Detail != nil {
		t.Fatalf("detail was created despite the rejected submission")
	}
}

func TestViewSystemWithoutDetail(t *testing.T) {
	svc := newTestService(t)
	view, err := svc.ViewSystem(context.Background(), "veh-unknown", SystemInterior)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Detail != nil {
		t.Fatalf("expected no detail")
	}
	if len(view.Points) != len(Checklist(SystemInterior)) {
		t.Fatalf("got %d placeholder points", len(view.Points))
	}
	for _, p := range view.Points {
		if p.Status != StatusPending {
			t.Fatalf("placeholder status = %q", p.Status)
		}
	}
}

func TestEnsureDetailIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	d1, err := svc.repo.EnsureDetail(ctx, "veh-1", SystemGeneral, "tech-1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	d2, err := svc.repo.EnsureDetail(ctx, "veh-1", SystemGeneral, "tech-2")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if d1.ID != d2.ID {
		t.Fatalf("got two details for the same vehicle and system")
	}
	// The second caller finds the first actor's detail.
	if d2.ReviewedBy != "tech-1" {
		t.Fatalf("detail attributed to %q", d2.ReviewedBy)
	}

	var count int64
	if err := svc.repo.db.Model(&Detail{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("detail rows = %d, want 1", count)
	}
}
