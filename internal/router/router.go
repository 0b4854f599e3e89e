package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pulsehr-backend/internal/handlers"
	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	employeeHandler *handlers.EmployeeHandler,
	attendanceHandler *handlers.AttendanceHandler,
	payrollHandler *handlers.PayrollHandler,
	evaluationHandler *handlers.EvaluationHandler,
	announcementHandler *handlers.AnnouncementHandler,
	memoHandler *handlers.MemoHandler,
	shoutOutHandler *handlers.ShoutOutHandler,
	secretSantaHandler *handlers.SecretSantaHandler,
	scheduleHandler *handlers.ScheduleHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Put("/password", authHandler.ChangePassword)
			})
		})

		// ──── Capture Ingest (monitoring agents) ────
		// Authenticated by shared agent token, not JWT.
		r.Post("/agent/captures", attendanceHandler.RecordCapture)

		// ──── Employee Routes ────
		r.Route("/employees", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", employeeHandler.List)
			r.Get("/org-chart", employeeHandler.OrgChart)
			r.Post("/me/avatar", employeeHandler.UploadAvatar)
			r.Get("/{id}", employeeHandler.Get)
			r.Get("/{id}/schedules", scheduleHandler.ListByEmployee)
			r.Get("/{id}/evaluations", evaluationHandler.ListByEmployee)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/", employeeHandler.Create)
				r.Put("/{id}", employeeHandler.Update)
				r.Get("/{id}/payroll", payrollHandler.ListByEmployee)
			})
		})

		// ──── Attendance Routes ────
		r.Route("/attendance", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/clock-in", attendanceHandler.ClockIn)
			r.Post("/clock-out", attendanceHandler.ClockOut)
			r.Post("/break/start", attendanceHandler.StartBreak)
			r.Post("/break/end", attendanceHandler.EndBreak)
			r.Get("/current", attendanceHandler.Current)
			r.Get("/", attendanceHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Get("/{id}/captures", attendanceHandler.ListCaptures)
			})
		})

		// ──── Payroll Routes ────
		r.Route("/payroll", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", payrollHandler.ListMine)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Get("/", payrollHandler.ListByPeriod)
				r.Post("/run", payrollHandler.Run)
				r.Post("/{id}/finalize", payrollHandler.Finalize)
			})
		})

		// ──── Evaluation Routes ────
		r.Route("/evaluations", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", evaluationHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/", evaluationHandler.Create)
				r.Put("/{id}", evaluationHandler.Update)
				r.Delete("/{id}", evaluationHandler.Delete)
				r.Post("/{id}/summarize", evaluationHandler.Summarize)
				r.Post("/summarize-missing", evaluationHandler.SummarizeMissing)
			})
		})

		// ──── Announcement Routes ────
		r.Route("/announcements", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", announcementHandler.List)
			r.Get("/{id}", announcementHandler.Get)
			r.Put("/{id}/reactions", announcementHandler.ToggleReaction)
			r.Get("/{id}/reactions", announcementHandler.ListReactions)
			r.Post("/{id}/comments", announcementHandler.AddComment)
			r.Get("/{id}/comments", announcementHandler.ListComments)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/", announcementHandler.Create)
				r.Delete("/{id}", announcementHandler.Delete)
			})
		})

		// ──── Memo Routes ────
		r.Route("/memos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", memoHandler.Create)
			r.Get("/", memoHandler.ListMine)
			r.Put("/{id}/read", memoHandler.MarkRead)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/escalate", memoHandler.EscalateNow)
			})
		})

		// ──── Shout-Out Routes ────
		r.Route("/shoutouts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", shoutOutHandler.Create)
			r.Get("/", shoutOutHandler.List)
		})

		// ──── Secret Santa Routes ────
		r.Route("/secret-santa", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", secretSantaHandler.GetEvent)
			r.Post("/{id}/join", secretSantaHandler.Join)
			r.Get("/{id}/participants", secretSantaHandler.ListParticipants)
			r.Get("/{id}/assignment", secretSantaHandler.MyAssignment)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/", secretSantaHandler.CreateEvent)
				r.Post("/{id}/draw", secretSantaHandler.Draw)
			})
		})

		// ──── Schedule Routes ────
		r.Route("/schedules", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", scheduleHandler.ListMine)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Put("/", scheduleHandler.Upsert)
				r.Delete("/{id}", scheduleHandler.Delete)
			})
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireAdmin)
			r.Post("/delete-employee", adminHandler.DeleteEmployee)
			r.Post("/reset-password", adminHandler.ResetPassword)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
