package auth

import (
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
)

// IsAdmin reports whether the user holds the admin role
func IsAdmin(user *models.User) bool {
	return user.IsAdmin()
}

// ValidateAdmin returns ErrPermissionDenied unless user is an admin
func ValidateAdmin(user *models.User) error {
	if user == nil {
		return apperrors.ErrUnauthorized
	}
	if !user.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}
	return nil
}

// CanModify reports whether user may change or delete something owned by ownerID
func CanModify(user *models.User, ownerID string) bool {
	if user == nil {
		return false
	}
	return user.ClerkID == ownerID || user.IsAdmin()
}

// ValidateOwnerOrAdmin returns ErrPermissionDenied unless CanModify holds
func ValidateOwnerOrAdmin(user *models.User, ownerID string) error {
	if user == nil {
		return apperrors.ErrUnauthorized
	}
	if !CanModify(user, ownerID) {
		return apperrors.NewForbiddenError("only the owner or an admin can do this")
	}
	return nil
}

// CanViewNote reports whether viewer may see note. Public notes are visible
// to everyone; pending and rejected ones only to their author and admins.
// viewer may be nil for anonymous requests.
func CanViewNote(viewer *models.User, note *models.Note) bool {
	if note.State() == models.StatePublic {
		return true
	}
	return CanModify(viewer, note.AuthorClerkID)
}

// CanViewNotice reports whether viewer may see notice. Drafts are admin only.
func CanViewNotice(viewer *models.User, notice *models.Notice) bool {
	return notice.IsPublished || viewer.IsAdmin()
}
