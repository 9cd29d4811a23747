package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleRecruiter, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account on the job platform.
type User struct {
	ID        string    `json:"id" gorm:"type:char(36);primaryKey" bson:"_id"`
	Name      string    `json:"name" gorm:"size:255;not null" bson:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null" bson:"email"`
	Password  string    `json:"-" gorm:"column:password_hash;size:255;not null" bson:"password_hash"` // bcrypt hash, never exposed
	Role      Role      `json:"role" gorm:"size:20;not null;default:'user';index" bson:"role"`
	Skills    []string  `json:"skills" gorm:"serializer:json;type:text" bson:"skills"`
	Bio       string    `json:"bio" gorm:"type:text" bson:"bio"`
	Avatar    string    `json:"avatar" gorm:"size:512" bson:"avatar"`
	Resume    string    `json:"resume" gorm:"size:512" bson:"resume"`
	CreatedAt time.Time `json:"created_at" gorm:"index" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// BeforeCreate sets the UUID and default role before inserting the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Prepare()
	return nil
}

// Prepare fills server-assigned fields that are still empty.
func (u *User) Prepare() {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
}

// Profile is the subset of a User that is safe to return to clients.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Skills    []string  `json:"skills"`
	Bio       string    `json:"bio,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Resume    string    `json:"resume,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public returns the public profile of u.
func (u *User) Public() Profile {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Skills:    skills,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		Resume:    u.Resume,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Profiles converts a slice of users to public profiles.
func Profiles(users []User) []Profile {
	out := make([]Profile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
