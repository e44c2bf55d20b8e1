package profile

import (
	"strings"
	"time"
)

// Role values are stored uppercase; comparisons are case-insensitive.
const (
	RoleTechnician = "TECNICO"
	RoleSupervisor = "JEFE"
	RoleManager    = "GERENTE"
)

// ValidRole reports whether cargo is one of the three known roles.
func ValidRole(cargo string) bool {
	return RoleIs(cargo, RoleTechnician) || RoleIs(cargo, RoleSupervisor) || RoleIs(cargo, RoleManager)
}

// RoleIs compares two role strings case-insensitively.
func RoleIs(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), want)
}

// Company groups user profiles for visibility scoping.
type Company struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Company) TableName() string { return "companies" }

// User is an authentication account.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	PasswordSalt string    `gorm:"size:64;not null"`
	IsSuperuser  bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// UserProfile links an account to a company and a role. The company reference
// is nullable: deleting a company leaves profiles in place with no company.
type UserProfile struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"uniqueIndex;size:36;not null"`
	CompanyID *string   `gorm:"index;size:36"`
	Role      string    `gorm:"size:20;not null"` // GERENTE / JEFE / TECNICO
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL"`
}

func (UserProfile) TableName() string { return "user_profiles" }
