package models

// RoleType defines the user role type
type RoleType string

const (
	RoleUser  RoleType = "USER"
	RoleAdmin RoleType = "ADMIN"
)

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// NoteType is the kind of material a note holds
type NoteType string

const (
	NoteTypePDF         NoteType = "PDF"
	NoteTypePPT         NoteType = "PPT"
	NoteTypeLecture     NoteType = "LECTURE"
	NoteTypeHandwritten NoteType = "HANDWRITTEN"
)

// Valid reports whether t is a known note type
func (t NoteType) Valid() bool {
	switch t {
	case NoteTypePDF, NoteTypePPT, NoteTypeLecture, NoteTypeHandwritten:
		return true
	}
	return false
}

// LikeAction is the outcome of a like toggle
type LikeAction string

const (
	LikeActionLiked   LikeAction = "liked"
	LikeActionUnliked LikeAction = "unliked"
)

// TargetKind identifies what a like or comment is attached to
type TargetKind string

const (
	TargetNote   TargetKind = "note"
	TargetNotice TargetKind = "notice"
)

// FeedbackCategory classifies user feedback
type FeedbackCategory string

const (
	FeedbackBug     FeedbackCategory = "BUG"
	FeedbackFeature FeedbackCategory = "FEATURE"
	FeedbackContent FeedbackCategory = "CONTENT"
	FeedbackOther   FeedbackCategory = "OTHER"
)

// Valid reports whether c is a known category
func (c FeedbackCategory) Valid() bool {
	switch c {
	case FeedbackBug, FeedbackFeature, FeedbackContent, FeedbackOther:
		return true
	}
	return false
}
