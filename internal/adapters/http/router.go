package http

import (
	"context"
	"net/http"

	"github.com/bps3275/sinora/internal/application"
	"github.com/go-chi/chi/v5"
)

// ReadinessCheck reports whether backing stores are reachable.
type ReadinessCheck func(ctx context.Context) error

// Handler is the HTTP adapter entrypoint for SINORA use-cases.
type Handler struct {
	service *application.Service
	ready   ReadinessCheck
}

func NewHandler(service *application.Service, ready ReadinessCheck) *Handler {
	return &Handler{service: service, ready: ready}
}

// NewRouter registers every route under /api/v1. metrics may be nil.
func NewRouter(handler *Handler, metrics *Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	if metrics != nil {
		r.Use(metrics.middleware)
		r.Method(http.MethodGet, "/metrics", metrics.handler)
	}

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", handler.register)
		r.Post("/auth/login", handler.login)
		r.Post("/auth/forgot-password/check-nip", handler.checkNIP)
		r.Post("/auth/forgot-password/reset", handler.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)

			r.Post("/auth/logout", handler.logout)
			r.Get("/auth/me", handler.me)
			r.Put("/auth/password", handler.changePassword)

			r.Get("/users", handler.listUsers)
			r.Get("/dashboard", handler.dashboard)

			r.Get("/mitra", handler.listMitra)
			r.Get("/mitra/all", handler.listAllMitra)
			r.Get("/mitra/counts", handler.mitraCounts)
			r.Get("/mitra/dates", handler.mitraDates)
			r.Get("/mitra/{sobat_id}", handler.getMitra)
			r.Get("/mitra/{sobat_id}/kegiatan", handler.mitraKegiatan)
			r.Get("/mitra/{sobat_id}/honor", handler.mitraMonthlyHonor)
			r.Get("/mitra/{sobat_id}/export", handler.exportMitra)

			r.Get("/kegiatan", handler.listKegiatan)
			r.Get("/kegiatan/counts", handler.kegiatanCounts)
			r.Get("/kegiatan/dates", handler.kegiatanDates)
			r.Get("/kegiatan/{kegiatan_id}", handler.getKegiatan)
			r.Get("/kegiatan/{kegiatan_id}/detail", handler.kegiatanDetail)
			r.Get("/kegiatan/{kegiatan_id}/mitra", handler.kegiatanMitra)

			r.Get("/honor/limits", handler.listHonorLimits)
			r.Get("/honor/total", handler.totalHonor)
			r.Get("/honor/current-month", handler.currentMonthHonor)
			r.Post("/honor/preview", handler.previewHonor)

			r.Get("/laporan", handler.listLaporan)
			r.Get("/laporan/export", handler.exportLaporan)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Put("/users/{user_id}/role", handler.changeRole)

				r.Post("/mitra", handler.createMitra)
				r.Post("/mitra/import", handler.importMitra)
				r.Put("/mitra/{sobat_id}", handler.updateMitra)
				r.Delete("/mitra/{sobat_id}", handler.deleteMitra)

				r.Post("/kegiatan", handler.createKegiatan)
				r.Put("/kegiatan/{kegiatan_id}", handler.updateKegiatan)
				r.Delete("/kegiatan/{kegiatan_id}", handler.deleteKegiatan)
				r.Put("/kegiatan/{kegiatan_id}/mitra/{sobat_id}", handler.replaceAssignment)
				r.Delete("/kegiatan/{kegiatan_id}/mitra/{sobat_id}", handler.removeAssignment)

				r.Put("/honor/limits/{jenis_petugas}", handler.updateHonorLimit)
				r.Get("/honor/ledger", handler.honorLedger)
				r.Post("/honor/rebuild", handler.rebuildHonor)
			})
		})
	})

	return r
}
