package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/VehiCheck/VehiCheck/internal/access"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/VehiCheck/VehiCheck/internal/profile"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsersHandler is the administrative surface for companies, accounts and
// profiles.
type UsersHandler struct {
	repo     *profile.Repo
	resolver *access.Resolver
	log      logger.Logger
}

func NewUsersHandler(repo *profile.Repo, resolver *access.Resolver, log logger.Logger) *UsersHandler {
	return &UsersHandler{repo: repo, resolver: resolver, log: log}
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Post("/api/admin/empresas", h.handleCreateCompany)
	r.Post("/api/admin/usuarios", h.handleCreateUser)
	r.Get("/api/admin/usuarios", h.handleListUsers)
	r.Put("/api/admin/usuarios/{id}/perfil", h.handleUpdateProfile)
}

func (h *UsersHandler) admin(w http.ResponseWriter, r *http.Request) bool {
	id, err := h.resolver.Resolve(r.Context())
	if errors.Is(err, access.ErrNotAuthenticated) {
		server.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return false
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if !access.CanViewAdminOptions(id) {
		server.WriteError(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

type createCompanyRequest struct {
	Name string `json:"nombre"`
}

func (h *UsersHandler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}
	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		server.WriteError(w, http.StatusBadRequest, "company name required")
		return
	}
	c := &profile.Company{ID: uuid.New().String(), Name: req.Name}
	if err := h.repo.CreateCompany(r.Context(), c); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusCreated, c)
}

type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"cargo"`
	CompanyID string `json:"empresa_id"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"cargo,omitempty"`
	Company  string `json:"empresa,omitempty"`
}

func (h *UsersHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		server.WriteError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if !profile.ValidRole(req.Role) {
		server.WriteError(w, http.StatusBadRequest, "unknown role")
		return
	}

	salt, err := profile.GenerateSaltHex()
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	hash, err := profile.HashPassword(req.Password, salt)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	u := &profile.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordSalt: salt,
		PasswordHash: hash,
	}
	if err := h.repo.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
			server.WriteError(w, http.StatusConflict, "username already taken")
			return
		}
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p := &profile.UserProfile{
		ID:     uuid.New().String(),
		UserID: u.ID,
		Role:   strings.ToUpper(strings.TrimSpace(req.Role)),
	}
	if req.CompanyID != "" {
		p.CompanyID = &req.CompanyID
	}
	if err := h.repo.CreateProfile(r.Context(), p); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h.log != nil {
		h.log.Infof("user %s created with role %s", u.Username, p.Role)
	}
	server.WriteJSON(w, http.StatusCreated, userView{ID: u.ID, Username: u.Username, Role: p.Role})
}

type listUsersResponse struct {
	Users []userView `json:"usuarios"`
	Total int64      `json:"total"`
}

func (h *UsersHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("pagina"))
	if page < 1 {
		page = 1
	}
	const perPage = 20
	users, total, err := h.repo.ListUsers(r.Context(), (page-1)*perPage, perPage)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := listUsersResponse{Total: total, Users: make([]userView, 0, len(users))}
	for _, u := range users {
		uv := userView{ID: u.ID, Username: u.Username}
		if p, err := h.repo.FindProfileByUserID(r.Context(), u.ID); err == nil {
			uv.Role = p.Role
			if p.Company != nil {
				uv.Company = p.Company.Name
			}
		}
		resp.Users = append(resp.Users, uv)
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

type updateProfileRequest struct {
	Role      *string `json:"cargo"`
	CompanyID *string `json:"empresa_id"` // empty string detaches the company
}

func (h *UsersHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w, r) {
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := chi.URLParam(r, "id")
	p, err := h.repo.FindProfileByUserID(r.Context(), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		server.WriteError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Role != nil {
		if !profile.ValidRole(*req.Role) {
			server.WriteError(w, http.StatusBadRequest, "unknown role")
			return
		}
		p.Role = strings.ToUpper(strings.TrimSpace(*req.Role))
	}
	if req.CompanyID != nil {
		if *req.CompanyID == "" {
			p.CompanyID = nil
		} else {
			p.CompanyID = req.CompanyID
		}
	}
	p.Company = nil
	if err := h.repo.SaveProfile(r.Context(), p); err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	uv := userView{ID: userID, Role: p.Role}
	server.WriteJSON(w, http.StatusOK, uv)
}
