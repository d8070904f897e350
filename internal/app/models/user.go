package models

import "time"

// User mirrors an identity-provider account inside NoteSphere
type User struct {
	ClerkID   string    `json:"clerkId" db:"clerk_id" example:"user_2abcXYZ"`
	Email     string    `json:"email" db:"email" example:"student@uni.edu"`
	Name      string    `json:"name" db:"name" example:"Ada Lovelace"`
	ImageURL  *string   `json:"imageUrl,omitempty" db:"image_url"`
	Role      RoleType  `json:"role" db:"role" example:"USER"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user may moderate
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
