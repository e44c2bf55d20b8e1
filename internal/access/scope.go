package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/VehiCheck/VehiCheck/internal/common/server"
	"github.com/VehiCheck/VehiCheck/internal/profile"
	"gorm.io/gorm"
)

// Identity is the requesting identity every scoped query starts from.
type Identity struct {
	UserID      string
	IsSuperuser bool
	HasProfile  bool
	Role        string // GERENTE / JEFE / TECNICO when HasProfile
	CompanyID   string // empty when the profile has no company
}

type scopeKind int

const (
	scopeNone scopeKind = iota // fail closed
	scopeAll
	scopeOwner
	scopeCompany
)

// Scope is the visible-vehicle predicate for an identity. It must be applied
// to the vehicle query before any search/date filter or pagination.
type Scope struct {
	kind      scopeKind
	ownerID   string
	companyID string
}

// ForIdentity resolves the scope rules in order, first match wins:
// superuser sees all; no profile sees nothing; technicians see their own
// vehicles; supervisors and managers see their company's vehicles; anything
// else sees nothing.
func ForIdentity(id Identity) Scope {
	switch {
	case id.IsSuperuser:
		return Scope{kind: scopeAll}
	case !id.HasProfile:
		return Scope{kind: scopeNone}
	case profile.RoleIs(id.Role, profile.RoleTechnician):
		return Scope{kind: scopeOwner, ownerID: id.UserID}
	case profile.RoleIs(id.Role, profile.RoleSupervisor), profile.RoleIs(id.Role, profile.RoleManager):
		if id.CompanyID == "" {
			return Scope{kind: scopeNone}
		}
		return Scope{kind: scopeCompany, companyID: id.CompanyID}
	default:
		return Scope{kind: scopeNone}
	}
}

// Apply narrows a vehicle query to the visible set. The zero Scope fails
// closed.
func (s Scope) Apply(q *gorm.DB) *gorm.DB {
	switch s.kind {
	case scopeAll:
		return q
	case scopeOwner:
		return q.Where("owner_id = ?", s.ownerID)
	case scopeCompany:
		return q.Where("owner_id IN (SELECT user_id FROM user_profiles WHERE company_id = ?)", s.companyID)
	default:
		return q.Where("1 = 0")
	}
}

// SeesEverything reports whether the scope is unrestricted.
func (s Scope) SeesEverything() bool { return s.kind == scopeAll }

// SeesNothing reports whether the scope is empty.
func (s Scope) SeesNothing() bool { return s.kind == scopeNone }

// CanViewAdminOptions reports whether the identity may see administrative
// options: superusers, supervisors and managers.
func CanViewAdminOptions(id Identity) bool {
	if id.IsSuperuser {
		return true
	}
	if !id.HasProfile {
		return false
	}
	return profile.RoleIs(id.Role, profile.RoleSupervisor) || profile.RoleIs(id.Role, profile.RoleManager)
}

// Resolver builds an Identity for the authenticated request by loading the
// account's profile row.
type Resolver struct {
	repo *profile.Repo
}

func NewResolver(repo *profile.Repo) *Resolver {
	return &Resolver{repo: repo}
}

var ErrNotAuthenticated = errors.New("not authenticated")

// Resolve reads the auth info placed in ctx by the JWT middleware and attaches
// profile data. A missing profile is not an error: the identity simply fails
// closed during scoping.
func (rs *Resolver) Resolve(ctx context.Context) (Identity, error) {
	if rs == nil || rs.repo == nil {
		return Identity{}, fmt.Errorf("resolver not initialized")
	}
	ai, ok := server.AuthFromContext(ctx)
	if !ok || ai.Subject == "" {
		return Identity{}, ErrNotAuthenticated
	}

	id := Identity{UserID: ai.Subject}

	u, err := rs.repo.FindUserByID(ctx, ai.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrNotAuthenticated
		}
		return Identity{}, err
	}
	id.IsSuperuser = u.IsSuperuser

	p, err := rs.repo.FindProfileByUserID(ctx, u.ID)
	switch {
	case err == nil:
		id.HasProfile = true
		id.Role = p.Role
		if p.CompanyID != nil {
			id.CompanyID = *p.CompanyID
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no profile: fail closed
	default:
		return Identity{}, err
	}
	return id, nil
}
