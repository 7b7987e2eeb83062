package model

import "time"

// Employee is a person tracked by the system.
type Employee struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	Email      string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Department string    `json:"department" gorm:"size:255"`
	Position   string    `json:"position" gorm:"size:255"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
