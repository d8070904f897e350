package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/controllers"
	"github.com/notesphere/notesphere/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Catalog    *controllers.CatalogController
	Note       *controllers.NoteController
	Moderation *controllers.ModerationController
	Drive      *controllers.DriveController
	Social     *controllers.SocialController
	Notice     *controllers.NoticeController
	User       *controllers.UserController
	Health     *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// --- Probes ---
	api.GET("/health/live", c.Health.Live)
	api.GET("/health/ready", c.Health.Ready)

	// --- Public routes, caller identified when a token is sent ---
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/years", c.Catalog.ListYears)
		public.GET("/years/:id", c.Catalog.GetYear)
		public.GET("/semesters/:id/subjects", c.Catalog.ListSubjects)
		public.GET("/subjects/:id", c.Catalog.GetSubject)
		public.GET("/subjects/:id/notes", c.Note.ListSubjectNotes)

		public.GET("/notes/:id", c.Note.GetNote)
		public.GET("/notes/:id/download-file", c.Note.DownloadFile)
		public.GET("/notes/:id/comments", c.Social.ListNoteComments)

		public.GET("/notices", c.Notice.ListNotices)
		public.GET("/notices/:id", c.Notice.GetNotice)
		public.GET("/notices/:id/comments", c.Social.ListNoticeComments)

		// The OAuth provider redirects here without our session token;
		// the signed state identifies the user.
		public.GET("/drive/callback", c.Drive.Callback)
	}

	// Sweep trigger for admins and the external scheduler
	api.POST("/notes/process-rejected", authMiddleware.RequireAdminOrScheduler(), c.Moderation.ProcessRejected)

	// --- Authenticated routes ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.RequireAuth())
	{
		authenticated.GET("/me", c.User.GetMe)
		authenticated.GET("/me/notes", c.Note.ListMyNotes)

		authenticated.POST("/notes", c.Note.CreateNote)
		authenticated.DELETE("/notes/:id", c.Note.DeleteNote)
		authenticated.POST("/notes/:id/likes", c.Social.ToggleNoteLike)
		authenticated.POST("/notes/:id/comments", c.Social.CreateNoteComment)

		authenticated.POST("/notices/:id/likes", c.Social.ToggleNoticeLike)
		authenticated.POST("/notices/:id/comments", c.Social.CreateNoticeComment)
		authenticated.DELETE("/comments/:id", c.Social.DeleteComment)

		authenticated.POST("/feedback", c.Notice.SubmitFeedback)

		drive := authenticated.Group("/drive")
		{
			drive.POST("/upload-session", c.Drive.CreateUploadSession)
			drive.GET("/connect", c.Drive.Connect)
			drive.GET("/status", c.Drive.Status)
			drive.DELETE("/connection", c.Drive.Disconnect)
		}
	}

	// --- Admin routes ---
	admin := api.Group("/admin")
	admin.Use(authMiddleware.RequireAdmin())
	{
		admin.POST("/years", c.Catalog.CreateYear)
		admin.DELETE("/years/:id", c.Catalog.DeleteYear)
		admin.POST("/semesters", c.Catalog.CreateSemester)
		admin.DELETE("/semesters/:id", c.Catalog.DeleteSemester)
		admin.POST("/subjects", c.Catalog.CreateSubject)
		admin.PUT("/subjects/:id", c.Catalog.UpdateSubject)
		admin.DELETE("/subjects/:id", c.Catalog.DeleteSubject)

		admin.GET("/notes/pending", c.Moderation.ListPending)
		admin.GET("/notes/rejected", c.Moderation.ListRejected)
		admin.POST("/notes/:id/approve", c.Moderation.ApproveNote)
		admin.POST("/notes/:id/reject", c.Moderation.RejectNote)
		admin.POST("/unreject", c.Moderation.Unreject)
		admin.GET("/rejected-notes", c.Moderation.ListArchive)

		admin.GET("/notices", c.Notice.ListAllNotices)
		admin.POST("/notices", c.Notice.CreateNotice)
		admin.PUT("/notices/:id", c.Notice.UpdateNotice)
		admin.POST("/notices/:id/publish", c.Notice.PublishNotice)
		admin.DELETE("/notices/:id", c.Notice.DeleteNotice)

		admin.GET("/feedback", c.Notice.ListFeedback)
		admin.POST("/feedback/:id/resolve", c.Notice.ResolveFeedback)

		admin.GET("/users", c.User.ListUsers)
		admin.PUT("/users/:clerkId/role", c.User.UpdateRole)
		admin.GET("/stats", c.User.GetStats)
	}
}
