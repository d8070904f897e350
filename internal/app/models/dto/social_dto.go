package dto

import "github.com/notesphere/notesphere/internal/app/models"

// CreateCommentRequest represents comment creation data
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// CommentListResponse represents a page of comments
type CommentListResponse struct {
	Comments   []*models.Comment `json:"comments"`
	Pagination PaginationInfo    `json:"pagination"`
}

// NoticeRequest represents notice creation and update data
type NoticeRequest struct {
	Title     string `json:"title" binding:"required,min=3,max=200"`
	Content   string `json:"content" binding:"required,max=10000"`
	Published bool   `json:"published"`
}

// PublishNoticeRequest toggles a notice's visibility
type PublishNoticeRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// NoticeListResponse represents a page of notices
type NoticeListResponse struct {
	Notices    []*models.Notice `json:"notices"`
	Pagination PaginationInfo   `json:"pagination"`
}

// CreateFeedbackRequest represents feedback submission data
type CreateFeedbackRequest struct {
	Message  string `json:"message" binding:"required,min=5,max=4000"`
	Category string `json:"category" binding:"omitempty,oneof=BUG FEATURE CONTENT OTHER"`
}

// FeedbackListResponse represents a page of feedback
type FeedbackListResponse struct {
	Feedback   []*models.Feedback `json:"feedback"`
	Pagination PaginationInfo     `json:"pagination"`
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=USER ADMIN"`
}

// UserListResponse represents a page of users
type UserListResponse struct {
	Users      []*models.User `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}
