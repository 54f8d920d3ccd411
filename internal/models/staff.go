package models

import "time"

const StaffActive = "Active"

type Staff struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	Phone      string    `gorm:"size:30;not null" json:"phone"`
	Position   string    `gorm:"size:100;not null" json:"position"`
	Department string    `gorm:"size:100;not null" json:"department"`
	Status     string    `gorm:"size:20;not null" json:"status"`
	ImageURL   string    `gorm:"size:255" json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
