package model

import "time"

// Roles an account can hold. Exactly one role per account; the role embedded
// in an issued token stays authoritative until that token expires.
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleModerator = "moderator"
)

// Account is a back-office login. The password hash never leaves the server;
// the json tag makes sure of it.
type Account struct {
	ID           string    `bson:"id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	LastModified time.Time `bson:"lastModified" json:"lastModified"`
}

// ValidRole reports whether s is one of the defined roles.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	}
	return false
}
