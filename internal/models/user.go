package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AccountCustomer = "customer"
	AccountVendor   = "vendor"
)

// User is the login account. Usernames are the email address.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	FirstName    string             `bson:"firstName" json:"first_name"`
	LastName     string             `bson:"lastName" json:"last_name"`
	IsStaff      bool               `bson:"isStaff" json:"isAdmin"`
	IsActive     bool               `bson:"isActive" json:"-"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"-"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"-"`
}

// DisplayName is "first last", falling back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Profile holds the customer/vendor attributes of a user, one per user.
type Profile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID         primitive.ObjectID `bson:"userId" json:"-"`
	Type           string             `bson:"type" json:"type"`
	Phone          string             `bson:"phone,omitempty" json:"phone"`
	Birthdate      string             `bson:"birthdate,omitempty" json:"birthdate"`
	City           string             `bson:"city,omitempty" json:"city"`
	Country        string             `bson:"country,omitempty" json:"country"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture"`
}

func (p *Profile) IsVendor() bool {
	return p != nil && p.Type == AccountVendor
}

// UserSummary is the compact user shape embedded in orders.
type UserSummary struct {
	ID       primitive.ObjectID `json:"id"`
	LegacyID primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Name     string             `json:"name"`
	IsAdmin  bool               `json:"isAdmin"`

	// FirstName is the raw first name, used by reports.
	FirstName string `json:"-"`
}

func NewUserSummary(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	name := u.FirstName
	if name == "" {
		name = u.Email
	}
	return &UserSummary{
		ID:       u.ID,
		LegacyID: u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     name,
		IsAdmin:  u.IsStaff,

		FirstName: u.FirstName,
	}
}

// UserDetail is a user with its profile, as returned by account endpoints.
type UserDetail struct {
	ID        primitive.ObjectID `json:"id"`
	LegacyID  primitive.ObjectID `json:"_id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Name      string             `json:"name"`
	IsAdmin   bool               `json:"isAdmin"`
	Profile   *Profile           `json:"profile"`
}

func NewUserDetail(u *User, profile *Profile) UserDetail {
	return UserDetail{
		ID:        u.ID,
		LegacyID:  u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.DisplayName(),
		IsAdmin:   u.IsStaff,
		Profile:   profile,
	}
}
