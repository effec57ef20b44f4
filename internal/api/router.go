package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "ai-chat/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a chi router with all the application's
// routes. clientOrigin is the single browser origin allowed to make
// cross-origin requests.
func NewRouter(chatHandler *ChatHandler, clientOrigin string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{clientOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// Liveness probe. A 200 with a fixed payload is all orchestration needs.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, HealthResponse{OK: true})
	})

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/chat", func(r chi.Router) {
		// Standard JSON routes get a request timeout so connections cannot
		// hang indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/", chatHandler.GetConversations)
			r.Post("/", chatHandler.HandleComplete)
			r.Get("/{conversationID}", chatHandler.GetConversation)
		})

		// The streaming endpoint must NOT have a timeout; it is designed to
		// hold the connection open while the reply is generated.
		r.Group(func(r chi.Router) {
			r.Get("/stream", chatHandler.HandleStream)
		})
	})

	return r
}
