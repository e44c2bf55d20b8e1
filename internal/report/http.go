package report

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/VehiCheck/VehiCheck/internal/profile"
	"github.com/VehiCheck/VehiCheck/internal/vehicle"
	"github.com/go-chi/chi/v5"
)

// Handler serves the dashboard, the consolidated report and mail dispatch.
type Handler struct {
	svc      *Service
	mailer   *Mailer
	resolver *access.Resolver
	profiles *profile.Repo
	log      logger.Logger
}

func NewHandler(svc *Service, mailer *Mailer, resolver *access.Resolver, profiles *profile.Repo, log logger.Logger) *Handler {
	return &Handler{svc: svc, mailer: mailer, resolver: resolver, profiles: profiles, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/dashboard", h.handleDashboard)
	r.Get("/api/vehiculos/{id}/reporte", h.handleReport)
	r.Post("/api/reportes/enviar", h.handleSendReport)
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

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	d, err := h.svc.BuildDashboard(r.Context(), id, time.Now())
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p, err := h.profiles.FindProfileByUserID(r.Context(), id.UserID); err == nil {
		d.Role = p.Role
		if p.Company != nil {
			d.Company = p.Company.Name
		}
	}
	server.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.Build(r.Context(), id, chi.URLParam(r, "id"))
	if errors.Is(err, vehicle.ErrNotVisible) {
		server.WriteError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, rep)
}

type sendRequest struct {
	VehicleID string `json:"vehiculo_id"`
	To        string `json:"destinatario"`
	Subject   string `json:"asunto"`
	Body      string `json:"cuerpo"`
	PDFBase64 string `json:"pdf_base64"` // rendered by the client, attached as-is
	Filename  string `json:"nombre_archivo"`
}

func (h *Handler) handleSendReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rep, err := h.svc.Build(r.Context(), id, req.VehicleID)
	if errors.Is(err, vehicle.ErrNotVisible) {
		server.WriteError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	d := Dispatch{
		To:             req.To,
		Subject:        req.Subject,
		BodyHTML:       req.Body,
		AttachmentName: req.Filename,
	}
	if d.Subject == "" {
		d.Subject = fmt.Sprintf("Informe de inspección - Orden N° %d", rep.Vehicle.OrderNumber)
	}
	if d.BodyHTML == "" {
		d.BodyHTML = renderReportHTML(rep)
	}
	if req.PDFBase64 != "" {
		pdf, err := base64.StdEncoding.DecodeString(req.PDFBase64)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "invalid pdf payload")
			return
		}
		d.Attachment = pdf
	}

	// Dispatch outcome is always 200 with an ok flag: a relay outage is not a
	// request error.
	server.WriteJSON(w, http.StatusOK, h.mailer.Send(r.Context(), d))
}
