package entity

import "time"

// DocumentTemplate is a named printable template whose body contains {{token}} placeholders
type DocumentTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
