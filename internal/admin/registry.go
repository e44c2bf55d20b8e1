package admin

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/go-chi/chi/v5"
)

// EntityConfig describes how one managed entity is listed and searched in the
// administrative UI.
type EntityConfig struct {
	Name         string   `json:"nombre"`
	Label        string   `json:"etiqueta"`
	ListColumns  []string `json:"columnas"`
	SearchFields []string `json:"campos_busqueda"`
}

// Registry holds the explicitly registered entity configs. Registration
// happens once at startup; reads are concurrent.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]EntityConfig
}

func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]EntityConfig)}
}

// Register adds an entity config. Re-registering a name is a programming
// error.
func (r *Registry) Register(cfg EntityConfig) error {
	if cfg.Name == "" {
		return errors.New("entity name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[cfg.Name]; exists {
		return fmt.Errorf("entity %q already registered", cfg.Name)
	}
	r.entities[cfg.Name] = cfg
	return nil
}

// List returns every registered config sorted by name.
func (r *Registry) List() []EntityConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntityConfig, 0, len(r.entities))
	for _, cfg := range r.entities {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the config for one entity.
func (r *Registry) Lookup(name string) (EntityConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.entities[name]
	return cfg, ok
}

// Handler exposes the registry to supervisors, managers and superusers.
type Handler struct {
	registry *Registry
	resolver *access.Resolver
}

func NewHandler(registry *Registry, resolver *access.Resolver) *Handler {
	return &Handler{registry: registry, resolver: resolver}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/admin/registry", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	id, err := h.resolver.Resolve(r.Context())
	if errors.Is(err, access.ErrNotAuthenticated) {
		server.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !access.CanViewAdminOptions(id) {
		server.WriteError(w, http.StatusForbidden, "insufficient role")
		return
	}
	server.WriteJSON(w, http.StatusOK, h.registry.List())
}
