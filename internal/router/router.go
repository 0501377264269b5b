package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/dispatch-backend/internal/handlers"
	"github.com/GregMSThompson/dispatch-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := middleware.NewMiddleware(deps.Firebase)
	dh := handlers.NewDriverHandlers(deps)
	ah := handlers.NewApplicationHandlers(deps)
	bh := handlers.NewBankAccountHandlers(deps)
	uh := handlers.NewUploadHandlers(deps)

	r.Group(func(r chi.Router) {
		r.Use(mw.FirebaseAuth)

		r.Mount("/me/bank-accounts", bh.BankAccountRoutes())
		r.Mount("/me", dh.DriverRoutes())
		r.Mount("/applications", ah.ApplicantRoutes())
		r.Mount("/uploads", uh.UploadRoutes())

		r.Route("/staff", func(r chi.Router) {
			r.Use(mw.RequireStaff)
			r.Mount("/drivers", dh.StaffRoutes())
			r.Mount("/applications", ah.StaffRoutes())
		})
	})
	return r
}
