package dto

// CreateYearRequest represents year creation data
type CreateYearRequest struct {
	Number int `json:"number" binding:"required,min=1,max=10" example:"1"`
}

// CreateSemesterRequest represents semester creation data
type CreateSemesterRequest struct {
	Number int    `json:"number" binding:"required,min=1,max=4" example:"1"`
	YearID string `json:"yearId" binding:"required,uuid"`
}

// CreateSubjectRequest represents subject creation data
type CreateSubjectRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=120" example:"Algorithms"`
	Code        string  `json:"code" binding:"required,subjectcode" example:"CS201"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	SemesterID  string  `json:"semesterId" binding:"required,uuid"`
}

// UpdateSubjectRequest represents subject update data
type UpdateSubjectRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=120"`
	Code        string  `json:"code" binding:"required,subjectcode"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}
