package admin

import (
	"testing"
)

func TestRegistryRegisterAndList(t *testing.T) {
	r := NewRegistry()
	configs := []EntityConfig{
		{Name: "vehiculos", Label: "Vehículos", ListColumns: []string{"numero_orden", "marca"}, SearchFields: []string{"placa"}},
		{Name: "empresas", Label: "Empresas", ListColumns: []string{"nombre"}},
	}
	for _, cfg := range configs {
		if err := r.Register(cfg); err != nil {
			t.Fatalf("register %s: %v", cfg.Name, err)
		}
	}

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("got %d entities", len(list))
	}
	// Sorted by name.
	if list[0].Name != "empresas" || list[1].Name != "vehiculos" {
		t.Fatalf("unexpected order: %s, %s", list[0].Name, list[1].Name)
	}

	if _, ok := r.Lookup("vehiculos"); !ok {
		t.Fatalf("lookup failed")
	}
	if _, ok := r.Lookup("desconocido"); ok {
		t.Fatalf("lookup matched an unregistered entity")
	}
}

func TestRegistryRejectsDuplicatesAndEmptyNames(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(EntityConfig{Name: "vehiculos"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(EntityConfig{Name: "vehiculos"}); err == nil {
		t.Fatalf("duplicate registration accepted")
	}
	if err := r.Register(EntityConfig{}); err == nil {
		t.Fatalf("empty name accepted")
	}
}
