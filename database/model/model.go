// Package model defines the persisted records shared by the tripgate
// services.
package model

// User roles. The role claim embedded in an access token is fixed at
// issuance; only the profile endpoint re-reads the stored value.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// ValidRole reports whether role is one of the two provisioned roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User is a credential record. PasswordHash holds a bcrypt hash, never the
// plaintext. Records are created by registration and never mutated in place.
type User struct {
	Id           int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	Role         string `json:"role" gorm:"not null"`
}

// Destination is a resource record owned by the destination service.
// Names are unique case-insensitively. NameLower holds the Go-folded name
// (sqlite's LOWER only folds ASCII) and carries the unique index backing
// the service-level duplicate check.
type Destination struct {
	Id          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"not null"`
	NameLower   string `json:"-" gorm:"column:name_lower;uniqueIndex;not null"`
	Description string `json:"description"`
	Location    string `json:"location"`
}
