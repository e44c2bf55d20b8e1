package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/common/auth"
	"github.com/VehiCheck/VehiCheck/internal/common/config"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Handler serves login and profile lookup.
type Handler struct {
	repo *Repo
	cfg  config.AuthConfig
	log  logger.Logger
}

func NewHandler(repo *Repo, cfg config.AuthConfig, log logger.Logger) *Handler {
	return &Handler{repo: repo, cfg: cfg, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/login", h.handleLogin)
	r.Get("/api/me", h.handleMe)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role,omitempty"`
	Company   string    `json:"company,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		server.WriteError(w, http.StatusBadRequest, "username and password required")
		return
	}

	u, err := h.repo.FindUserByUsername(r.Context(), req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		server.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !VerifyPassword(req.Password, u.PasswordSalt, u.PasswordHash) {
		server.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Roles go into the token for transport-level RBAC; the access-scoping
	// module re-reads the profile row per request.
	resp := loginResponse{}
	var roles []string
	if u.IsSuperuser {
		roles = append(roles, "SUPERUSER")
	}
	p, err := h.repo.FindProfileByUserID(r.Context(), u.ID)
	switch {
	case err == nil:
		roles = append(roles, strings.ToUpper(p.Role))
		resp.Role = strings.ToUpper(p.Role)
		if p.Company != nil {
			resp.Company = p.Company.Name
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// account without profile: authenticated but sees nothing
	default:
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ttl := time.Duration(h.cfg.TokenTTLMin) * time.Minute
	token, exp, err := auth.GenerateAccessToken(h.cfg, u.ID, roles, ttl)
	if err != nil {
		if h.log != nil {
			h.log.Errorf("issue token for %s: %v", u.Username, err)
		}
		server.WriteError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	resp.Token = token
	resp.ExpiresAt = exp
	server.WriteJSON(w, http.StatusOK, resp)
}

type meResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	Company  string `json:"company,omitempty"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	u, err := h.repo.FindUserByID(r.Context(), ai.Subject)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := meResponse{UserID: u.ID, Username: u.Username}
	if p, err := h.repo.FindProfileByUserID(r.Context(), u.ID); err == nil {
		resp.Role = strings.ToUpper(p.Role)
		if p.Company != nil {
			resp.Company = p.Company.Name
		}
	}
	server.WriteJSON(w, http.StatusOK, resp)
}
