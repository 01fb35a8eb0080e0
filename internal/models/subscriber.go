package models

import "time"

// Subscriber is a newsletter sign-up.
type Subscriber struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt"`
}
