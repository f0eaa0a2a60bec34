package model

import "time"

// User represents a registered account. Users are created on registration and never
// updated or deleted through the API.
type User struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey" bson:"_id"`
	Name         string    `json:"name" gorm:"size:255;not null" bson:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null" bson:"email"`
	PasswordHash string    `json:"-" gorm:"size:255;not null" bson:"password_hash"` // Never expose in JSON
	Role         Role      `json:"role" gorm:"size:16;not null;default:'User'" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}
