package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
)

// ErrNotFound is the shared not-found error for repositories
var ErrNotFound = apperrors.ErrResourceNotFound

// psql is the statement builder every repository uses
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	UserAuthRepository     *UserAuthRepository
	YearRepository         *YearRepository
	SemesterRepository     *SemesterRepository
	SubjectRepository      *SubjectRepository
	NoteRepository         *NoteRepository
	RejectedNoteRepository *RejectedNoteRepository
	LikeRepository         *LikeRepository
	CommentRepository      *CommentRepository
	NoticeRepository       *NoticeRepository
	FeedbackRepository     *FeedbackRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	pool := database.Pool
	return &Repositories{
		UserRepository:         NewUserRepository(pool),
		UserAuthRepository:     NewUserAuthRepository(pool),
		YearRepository:         NewYearRepository(pool),
		SemesterRepository:     NewSemesterRepository(pool),
		SubjectRepository:      NewSubjectRepository(pool),
		NoteRepository:         NewNoteRepository(database),
		RejectedNoteRepository: NewRejectedNoteRepository(pool),
		LikeRepository:         NewLikeRepository(pool),
		CommentRepository:      NewCommentRepository(pool),
		NoticeRepository:       NewNoticeRepository(pool),
		FeedbackRepository:     NewFeedbackRepository(pool),
	}
}

// countRows runs a COUNT(*) built by squirrel
func countRows(ctx context.Context, q db.DBTX, builder squirrel.SelectBuilder) (int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// isNoRows reports whether err means the query matched nothing
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
