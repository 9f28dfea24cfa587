package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	characterHandler "github.com/Ahmed-AmineHomman/escribito/internal/handler/character"
	generateHandler "github.com/Ahmed-AmineHomman/escribito/internal/handler/generate"
	liveHandler "github.com/Ahmed-AmineHomman/escribito/internal/handler/live"
	localeHandler "github.com/Ahmed-AmineHomman/escribito/internal/handler/locale"
	scriptHandler "github.com/Ahmed-AmineHomman/escribito/internal/handler/script"
	"github.com/Ahmed-AmineHomman/escribito/internal/locale"
	middlewarePkg "github.com/Ahmed-AmineHomman/escribito/internal/middleware"
	characterModel "github.com/Ahmed-AmineHomman/escribito/internal/model/character"
	aiService "github.com/Ahmed-AmineHomman/escribito/internal/service/ai"
	exportService "github.com/Ahmed-AmineHomman/escribito/internal/service/export"
	scriptService "github.com/Ahmed-AmineHomman/escribito/internal/service/script"
	"github.com/Ahmed-AmineHomman/escribito/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(characters characterModel.Store, scriptSvc *scriptService.Service, aiSvc *aiService.Service, exporter *exportService.Exporter, catalog *locale.Catalog) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	scriptH := scriptHandler.New(scriptSvc, exporter)
	characterH := characterHandler.New(characters)
	localeH := localeHandler.New(catalog)

	var generateH *generateHandler.Handler
	if aiSvc != nil {
		generateH = generateHandler.New(aiSvc, scriptSvc)
	}

	r.Route("/api", func(api chi.Router) {
		characterH.RegisterRoutes(api)
		scriptH.RegisterRoutes(api)
		localeH.RegisterRoutes(api)

		if generateH != nil {
			generateH.RegisterRoutes(api)
		} else {
			api.Post("/session/{sessionID}/generate", func(w http.ResponseWriter, r *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai generation unavailable")
			})
		}

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			if generateH == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai generation unavailable")
				return
			}

			sessionID := chi.URLParam(r, "sessionID")
			if err := generateH.HandleStreamRequest(r.Context(), w, sessionID); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		liveH := liveHandler.New(aiSvc, scriptSvc)
		liveH.RegisterRoutes(api)
	})

	return r
}
