package asset

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler serves the text-image catalog. Management requires administrative
// visibility; reads only need authentication.
type Handler struct {
	repo     *Repo
	resolver *access.Resolver
}

func NewHandler(repo *Repo, resolver *access.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/imagenes-texto", h.handleList)
	r.Get("/api/imagenes-texto/{id}", h.handleGet)
	r.Post("/api/imagenes-texto", h.handleCreate)
	r.Delete("/api/imagenes-texto/{id}", h.handleDelete)
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

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) bool {
	id, ok := h.identity(w, r)
	if !ok {
		return false
	}
	if !access.CanViewAdminOptions(id) {
		server.WriteError(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	imgs, err := h.repo.List(r.Context())
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, imgs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	img, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		server.WriteError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, img)
}

type createRequest struct {
	Title  string `json:"titulo"`
	Text   string `json:"texto"`
	Base64 string `json:"imagen"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Base64 == "" {
		server.WriteError(w, http.StatusBadRequest, "title and image required")
		return
	}
	img := &TextImage{
		ID:     uuid.New().String(),
		Title:  req.Title,
		Text:   req.Text,
		Base64: req.Base64,
	}
	if err := h.repo.Create(r.Context(), img); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusCreated, img)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}
	err := h.repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		server.WriteError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
