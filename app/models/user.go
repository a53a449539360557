// Package models defines the persistent documents and their API-safe views.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a storefront account. Emails are stored lowercase and are unique.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"passwordHash"`
	Phone        string             `bson:"phone,omitempty"`
	Address      string             `bson:"address,omitempty"`
	City         string             `bson:"city,omitempty"`
	State        string             `bson:"state,omitempty"`
	Pincode      string             `bson:"pincode,omitempty"`
	DateOfBirth  *time.Time         `bson:"dateOfBirth,omitempty"`
	Gender       string             `bson:"gender,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// SafeUser is the view of a user returned by the API. It never carries the
// password hash.
type SafeUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	Pincode     string     `json:"pincode,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Safe converts the document to its API view.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Address:     u.Address,
		City:        u.City,
		State:       u.State,
		Pincode:     u.Pincode,
		DateOfBirth: u.DateOfBirth,
		Gender:      u.Gender,
		CreatedAt:   u.CreatedAt,
	}
}
