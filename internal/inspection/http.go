package inspection

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/VehiCheck/VehiCheck/internal/vehicle"
	"github.com/go-chi/chi/v5"
)

// Handler serves the per-system inspection endpoints. Vehicle visibility is
// checked through the vehicle service before any inspection data is touched.
type Handler struct {
	svc      *Service
	vehicles *vehicle.Service
	resolver *access.Resolver
	log      logger.Logger
}

func NewHandler(svc *Service, vehicles *vehicle.Service, resolver *access.Resolver, log logger.Logger) *Handler {
	return &Handler{svc: svc, vehicles: vehicles, resolver: resolver, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/checklists", h.handleChecklists)
	r.Get("/api/vehiculos/{id}/sistemas/{sistema}", h.handleViewSystem)
	r.Post("/api/vehiculos/{id}/sistemas/{sistema}", h.handleSubmitSystem)
}

type checklistView struct {
	System SystemKind  `json:"sistema"`
	Label  string      `json:"etiqueta"`
	Icon   string      `json:"icono"`
	Points []PointSpec `json:"puntos"`
}

type checklistCatalog struct {
	Systems  []checklistView `json:"sistemas"`
	Statuses []Status        `json:"estados"`
}

// handleChecklists publishes the fixed item keys and status choices so form
// clients render from the same tables the workflow validates against.
func (h *Handler) handleChecklists(w http.ResponseWriter, r *http.Request) {
	cat := checklistCatalog{
		Statuses: []Status{StatusPending, StatusGood, StatusObservation, StatusRejected},
	}
	for _, k := range SystemOrder {
		cat.Systems = append(cat.Systems, checklistView{System: k, Label: k.Label(), Icon: k.Icon(), Points: Checklist(k)})
	}
	server.WriteJSON(w, http.StatusOK, cat)
}

type pointView struct {
	Name        string   `json:"nombre"`
	Label       string   `json:"etiqueta"`
	Status      Status   `json:"estado"`
	Observation string   `json:"observacion,omitempty"`
	Images      []string `json:"imagenes,omitempty"`
}

type systemResponse struct {
	System SystemKind  `json:"sistema"`
	Label  string      `json:"etiqueta"`
	Rollup Rollup      `json:"estado"`
	Color  string      `json:"color"`
	Points []pointView `json:"puntos"`
}

func toSystemResponse(v *SystemView) systemResponse {
	resp := systemResponse{System: v.System, Label: v.System.Label()}
	var recorded []Point
	for _, spec := range Checklist(v.System) {
		p := v.Points[spec.Key]
		pv := pointView{Name: spec.Key, Label: spec.Label, Status: p.Status, Observation: p.Observation}
		for _, img := range p.Images {
			pv.Images = append(pv.Images, img.Base64)
		}
		resp.Points = append(resp.Points, pv)
		if p.ID != "" {
			recorded = append(recorded, p)
		}
	}
	resp.Rollup = RollupStatus(recorded)
	resp.Color = resp.Rollup.Color()
	return resp
}

// resolve authenticates the request, parses the route and checks the caller
// can see the vehicle.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (access.Identity, string, SystemKind, bool) {
	id, err := h.resolver.Resolve(r.Context())
	if errors.Is(err, access.ErrNotAuthenticated) {
		server.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return access.Identity{}, "", "", false
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return access.Identity{}, "", "", false
	}

	system, err := ParseSystemKind(chi.URLParam(r, "sistema"))
	if err != nil {
		server.WriteError(w, http.StatusNotFound, err.Error())
		return access.Identity{}, "", "", false
	}

	vehicleID := chi.URLParam(r, "id")
	if _, err := h.vehicles.Get(r.Context(), id, vehicleID); err != nil {
		if errors.Is(err, vehicle.ErrNotVisible) {
			server.WriteError(w, http.StatusNotFound, "vehicle not found")
		} else {
			server.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return access.Identity{}, "", "", false
	}
	return id, vehicleID, system, true
}

func (h *Handler) handleViewSystem(w http.ResponseWriter, r *http.Request) {
	_, vehicleID, system, ok := h.resolve(w, r)
	if !ok {
		return
	}
	view, err := h.svc.ViewSystem(r.Context(), vehicleID, system)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, toSystemResponse(view))
}

type submitItem struct {
	Status      *string  `json:"estado"`
	Observation *string  `json:"observacion"`
	Images      []string `json:"imagenes"`
}

func (h *Handler) handleSubmitSystem(w http.ResponseWriter, r *http.Request) {
	id, vehicleID, system, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var body map[string]submitItem
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make(map[string]UpsertPointInput, len(body))
	for name, raw := range body {
		in := UpsertPointInput{Observation: raw.Observation, Images: raw.Images}
		if raw.Status != nil && *raw.Status != "" {
			st, err := ParseStatus(*raw.Status)
			if err != nil {
				server.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			in.Status = &st
		}
		items[name] = in
	}

	view, err := h.svc.SubmitSystem(r.Context(), vehicleID, system, id.UserID, items)
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, toSystemResponse(view))
}
