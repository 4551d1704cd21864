package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/map-quest/internal/handlers"
	"github.com/jwebster45206/map-quest/internal/middleware"
	"github.com/jwebster45206/map-quest/internal/services"
	"github.com/jwebster45206/map-quest/internal/services/events"
	"github.com/jwebster45206/map-quest/internal/transport/ws"
	"github.com/jwebster45206/map-quest/pkg/storage"
)

// newHandler wires every route. redisClient carries pub/sub for session
// events.
func newHandler(store storage.Storage, redisClient *redis.Client, log *slog.Logger) http.Handler {
	broadcaster := events.NewBroadcaster(redisClient, log)
	game := services.NewGameService(store, broadcaster, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	mux.Handle("/metrics", promhttp.Handler())

	gamesHandler := handlers.NewGamesHandler(store, log)
	mux.Handle("/v1/games", gamesHandler)
	mux.Handle("/v1/games/", gamesHandler)

	sessionsHandler := handlers.NewSessionsHandler(game, log)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.Handle("/v1/sessions/", sessionsHandler)

	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(redisClient, log))
	mux.Handle("/v1/ws", ws.NewHandler(game, log))

	return middleware.LoggerWith(log, mux)
}
