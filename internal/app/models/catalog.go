package models

import "time"

// Year is the top of the catalog hierarchy
type Year struct {
	ID        string      `json:"id" db:"id"`
	Number    int         `json:"number" db:"number" example:"1"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	Semesters []*Semester `json:"semesters,omitempty"`
}

// Semester belongs to exactly one Year
type Semester struct {
	ID        string     `json:"id" db:"id"`
	Number    int        `json:"number" db:"number" example:"1"`
	YearID    string     `json:"yearId" db:"year_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	Subjects  []*Subject `json:"subjects,omitempty"`
}

// Subject belongs to exactly one Semester; Code is unique within it
type Subject struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" example:"Algorithms"`
	Code        string    `json:"code" db:"code" example:"CS201"`
	Description *string   `json:"description,omitempty" db:"description"`
	SemesterID  string    `json:"semesterId" db:"semester_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
