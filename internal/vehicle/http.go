package vehicle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/go-chi/chi/v5"
)

// Handler serves the vehicle registry endpoints.
type Handler struct {
	svc      *Service
	resolver *access.Resolver
	log      logger.Logger
}

func NewHandler(svc *Service, resolver *access.Resolver, log logger.Logger) *Handler {
	return &Handler{svc: svc, resolver: resolver, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/vehiculos", h.handleCreate)
	r.Get("/api/vehiculos", h.handleList)
	r.Get("/api/vehiculos/{id}", h.handleGet)
}

type vehicleView struct {
	ID           string    `json:"id"`
	Plate        string    `json:"placa,omitempty"`
	OrderNumber  uint      `json:"numero_orden"`
	Brand        string    `json:"marca"`
	Model        string    `json:"modelo"`
	Color        string    `json:"color"`
	FuelType     string    `json:"combustible"`
	EngineNumber string    `json:"numero_motor"`
	ImageBase64  string    `json:"imagen,omitempty"`
	RegisteredAt time.Time `json:"fecha_registro"`
}

func toView(v Vehicle) vehicleView {
	return vehicleView{
		ID:           v.ID,
		Plate:        v.Plate,
		OrderNumber:  v.OrderNumber,
		Brand:        v.Brand,
		Model:        v.Model,
		Color:        v.Color,
		FuelType:     v.FuelType,
		EngineNumber: v.EngineNumber,
		ImageBase64:  v.ImageBase64,
		RegisteredAt: v.RegisteredAt,
	}
}

type createRequest struct {
	Plate        string `json:"placa"`
	Brand        string `json:"marca"`
	Model        string `json:"modelo"`
	Color        string `json:"color"`
	FuelType     string `json:"combustible"`
	EngineNumber string `json:"numero_motor"`
	ImageBase64  string `json:"imagen"`
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (access.Identity, bool) {
	id, err := h.resolver.Resolve(r.Context())
	if errors.Is(err, access.ErrNotAuthenticated) {
		server.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return access.Identity{}, false
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return access.Identity{}, false
	}
	return id, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := h.svc.Register(r.Context(), id, RegisterInput{
		Plate:        req.Plate,
		Brand:        req.Brand,
		Model:        req.Model,
		Color:        req.Color,
		FuelType:     req.FuelType,
		EngineNumber: req.EngineNumber,
		ImageBase64:  req.ImageBase64,
	})
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusCreated, toView(*v))
}

type listResponse struct {
	Vehicles       []vehicleView `json:"vehiculos"`
	Total          int64         `json:"total"`
	Page           int           `json:"pagina"`
	PageSize       int           `json:"por_pagina"`
	CanViewOptions bool          `json:"puede_ver_opciones"`
}

// parseDate accepts YYYY-MM-DD; anything else is treated as absent.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("pagina"))
	f := ListFilter{
		Query: q.Get("q"),
		From:  parseDate(q.Get("desde")),
		To:    parseDate(q.Get("hasta")),
		Page:  page,
	}
	vehicles, total, err := h.svc.List(r.Context(), id, f)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]vehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		views = append(views, toView(v))
	}
	if f.Page < 1 {
		f.Page = 1
	}
	server.WriteJSON(w, http.StatusOK, listResponse{
		Vehicles:       views,
		Total:          total,
		Page:           f.Page,
		PageSize:       PageSize,
		CanViewOptions: access.CanViewAdminOptions(id),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	v, err := h.svc.Get(r.Context(), id, chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotVisible) {
		server.WriteError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, toView(*v))
}
