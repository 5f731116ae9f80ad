package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/middleware"
	"github.com/noah-isme/academy-api/internal/models"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Academy      *AcademyHandler
	Registration *RegistrationHandler
	Lecture      *LectureHandler
	Exam         *ExamHandler
	Notice       *NoticeHandler
	Bill         *BillHandler
	Quiz         *QuizHandler
	OTP          *OTPHandler
	Chat         *ChatHandler
	Metrics      *MetricsHandler
}

// RouterDeps carries the cross-cutting collaborators of the route table.
type RouterDeps struct {
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditWriter
	Observer       middleware.RequestObserver
	PlatformAdmins []string
	CacheTTL       time.Duration
	Logger         *zap.Logger
}

// Register mounts the platform probes and the API under prefix.
func Register(r *gin.Engine, prefix string, h Handlers, deps RouterDeps) {
	r.Use(middleware.Metrics(deps.Observer))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	chief := middleware.RequireRoles(models.RoleChief)
	staff := middleware.RequireRoles(models.RoleChief, models.RoleTeacher)
	academy := middleware.RequireAcademyParam("academy_id")
	cached := middleware.CachedList(deps.CacheTTL)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}

	public := api.Group("")
	public.POST("/user/signup", h.Auth.Signup)
	public.POST("/user/login", h.Auth.Login)
	public.POST("/user/refresh", h.Auth.Refresh)
	public.POST("/otp", h.OTP.Request)
	public.POST("/otp/verify", h.OTP.Verify)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	users := secured.Group("/user")
	users.POST("/logout", h.Auth.Logout)
	users.GET("/me", h.User.Me)
	users.PATCH("/me", h.User.UpdateMe)
	users.PATCH("/me/password", h.Auth.ChangePassword)
	users.POST("/me/image", h.User.UploadImage)
	users.POST("/child", middleware.RequireRoles(models.RoleParent), h.User.LinkChild)
	users.GET("/academy/:academy_id", staff, academy, h.User.ListMembers)

	academies := secured.Group("/academy")
	academies.POST("", chief, h.Academy.Create)
	academies.GET("/:academy_id", academy, h.Academy.Get)
	academies.PATCH("/:academy_id", chief, academy, h.Academy.Update)
	academies.PATCH("/:academy_id/status", middleware.PlatformAdmin(deps.PlatformAdmins), h.Academy.SetStatus)
	academies.POST("/:academy_id/invite-key", chief, academy, audit(models.AuditActionInviteKeyRotate, "academy"), h.Academy.RotateInviteKey)
	academies.POST("/:academy_id/recount", chief, academy, h.Academy.Recount)

	registrations := secured.Group("/registration")
	registrations.POST("", h.Registration.Create)
	registrations.GET("/:academy_id", chief, academy, h.Registration.List)
	registrations.PATCH("/:registration_id", chief, h.Registration.Decide)

	examTypes := secured.Group("/exam-type/:academy_id", academy)
	examTypes.POST("", staff, h.Exam.CreateType)
	examTypes.GET("", h.Exam.ListTypes)
	examTypes.DELETE("/:type_id", staff, h.Exam.DeleteType)

	lectures := secured.Group("/lecture/:academy_id", academy)
	lectures.POST("", staff, h.Lecture.Create)
	lectures.GET("", cached, h.Lecture.List)
	lectures.GET("/:lecture_id", h.Lecture.Get)
	lectures.PATCH("/:lecture_id", staff, h.Lecture.Update)
	lectures.DELETE("/:lecture_id", staff, audit(models.AuditActionLectureDelete, "lecture"), h.Lecture.Delete)
	lectures.POST("/:lecture_id/participants", staff, h.Lecture.AddParticipants)
	lectures.DELETE("/:lecture_id/participants/:user_id", staff, h.Lecture.RemoveParticipant)

	exams := lectures.Group("/:lecture_id/exam")
	exams.POST("", staff, h.Exam.Create)
	exams.GET("", h.Exam.List)
	exams.GET("/:exam_id", h.Exam.Get)
	exams.DELETE("/:exam_id", staff, audit(models.AuditActionExamDelete, "exam"), h.Exam.Delete)
	exams.POST("/:exam_id/score", staff, h.Exam.UploadScores)
	exams.GET("/:exam_id/score", h.Exam.Scores)
	exams.PATCH("/:exam_id/score/:user_id", staff, h.Exam.ModifyScore)
	exams.POST("/:exam_id/score/recalculate", staff, h.Exam.Recalculate)
	exams.GET("/:exam_id/score/export", staff, h.Exam.Export)

	notices := secured.Group("/notice")
	notices.GET("/list", cached, h.Notice.List)
	notices.POST("/:academy_id/:lecture_id", staff, academy, h.Notice.Create)
	notices.GET("/:notice_id", h.Notice.Get)
	notices.PATCH("/:notice_id", staff, h.Notice.Update)
	notices.DELETE("/:notice_id", staff, audit(models.AuditActionNoticeDelete, "notice"), h.Notice.Delete)

	bills := secured.Group("/bill")
	bills.GET("/user/me", h.Bill.MyBills)
	billing := bills.Group("/:academy_id", chief, academy)
	billing.POST("", h.Bill.CreateBill)
	billing.GET("", h.Bill.ListBills)
	billing.PATCH("/pay", h.Bill.Pay)
	billing.POST("/class", h.Bill.CreateClass)
	billing.GET("/class", h.Bill.ListClasses)
	billing.DELETE("/class/:class_id", audit(models.AuditActionClassDelete, "class"), h.Bill.DeleteClass)

	quizzes := secured.Group("/quiz/:lecture_id")
	quizzes.POST("", staff, h.Quiz.Create)
	quizzes.GET("/:exam_id", h.Quiz.Get)
	quizzes.POST("/:exam_id/grade", middleware.RequireRoles(models.RoleStudent), h.Quiz.Grade)
	quizzes.GET("/:exam_id/results", staff, h.Quiz.Results)

	chat := secured.Group("/chat")
	chat.GET("/ws", h.Chat.Connect)
	chat.GET("/rooms", h.Chat.Rooms)
	chat.GET("/rooms/:room_id/messages", h.Chat.Messages)

	platform := secured.Group("/platform", middleware.PlatformAdmin(deps.PlatformAdmins))
	platform.GET("/metrics", h.Metrics.Snapshot)
}
