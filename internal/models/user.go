package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// SocialLinks groups the optional profile links shown on a user page.
type SocialLinks struct {
	Website  string `bson:"website,omitempty" json:"website,omitempty"`
	GitHub   string `bson:"github,omitempty" json:"github,omitempty"`
	LinkedIn string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Twitter  string `bson:"twitter,omitempty" json:"twitter,omitempty"`
}

// User is the root identity document. It is referenced (never owned) by
// chats, messages, skills and reviews.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"password" json:"-"` // Never send to client
	Bio            string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Expertise      string             `bson:"expertise,omitempty" json:"expertise,omitempty"`
	Skills         []string           `bson:"skills,omitempty" json:"skills,omitempty"`
	SocialLinks    SocialLinks        `bson:"socialLinks,omitempty" json:"socialLinks"`
	Role           string             `bson:"role" json:"role"`
	IsVerified     bool               `bson:"isVerified" json:"isVerified"`
	IsOnline       bool               `bson:"isOnline,omitempty" json:"isOnline,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserRegistration contains data needed for user registration
type UserRegistration struct {
	Name     string `json:"name" binding:"required,min=1,max=60"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UserLogin contains data needed for user login
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate carries the mutable profile fields. Pointer fields
// distinguish "not sent" from "set to empty".
type ProfileUpdate struct {
	Name        *string      `json:"name,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Bio         *string      `json:"bio,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Skills      *[]string    `json:"skills,omitempty"`
	SocialLinks *SocialLinks `json:"socialLinks,omitempty"`
}

// PasswordUpdate is the body for a password change.
type PasswordUpdate struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// UserResponse is what we return to the client
type UserResponse struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Bio         string             `json:"bio,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Location    string             `json:"location,omitempty"`
	Skills      []string           `json:"skills,omitempty"`
	SocialLinks SocialLinks        `json:"socialLinks"`
	Role        string             `json:"role"`
	AvatarURL   string             `json:"avatarUrl"`
	IsVerified  bool               `json:"isVerified"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// NewUserResponse strips credential material from a stored user.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Bio:         u.Bio,
		Phone:       u.Phone,
		Location:    u.Location,
		Skills:      u.Skills,
		SocialLinks: u.SocialLinks,
		Role:        u.Role,
		AvatarURL:   u.ProfilePicture,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

// UserSummary is the compact identity shape embedded in chats, messages
// and reviews so callers never need a second lookup.
type UserSummary struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Expertise      string             `bson:"expertise,omitempty" json:"expertise,omitempty"`
	Skills         []string           `bson:"skills,omitempty" json:"skills,omitempty"`
	IsOnline       bool               `bson:"isOnline,omitempty" json:"isOnline"`
}

// Summary converts a full user document to its embedded form.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Expertise:      u.Expertise,
		Skills:         u.Skills,
		IsOnline:       u.IsOnline,
	}
}
