package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/daem-platform/daem-backend/internal/handler/chat"
	"github.com/daem-platform/daem-backend/internal/handler/live"
	"github.com/daem-platform/daem-backend/internal/handler/mood"
	"github.com/daem-platform/daem-backend/internal/handler/resource"
	sessionhandler "github.com/daem-platform/daem-backend/internal/handler/session"
	"github.com/daem-platform/daem-backend/internal/handler/stats"
	"github.com/daem-platform/daem-backend/internal/handler/suggestion"
	middlewarePkg "github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/service/conversation"
	sessionservice "github.com/daem-platform/daem-backend/internal/service/session"
	"github.com/daem-platform/daem-backend/internal/store"
)

// Deps bundles everything the routes need.
type Deps struct {
	Store    store.Store
	Sessions *sessionservice.Manager
	Pipeline *conversation.Pipeline
}

// NewRouter wires HTTP routes to the core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	sessionHandler := sessionhandler.New(deps.Sessions, deps.Store)
	chatHandler := chat.New(deps.Pipeline, deps.Store, deps.Store)
	liveHandler := live.New(deps.Pipeline, deps.Store)
	moodHandler := mood.New(deps.Store)
	suggestionHandler := suggestion.New(deps.Store)
	resourceHandler := resource.New(deps.Store)
	statsHandler := stats.New(deps.Store)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.Identity)

		sessionHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
		moodHandler.RegisterRoutes(api)
		suggestionHandler.RegisterRoutes(api)
		resourceHandler.RegisterRoutes(api)
		statsHandler.RegisterRoutes(api)
	})

	return r
}
