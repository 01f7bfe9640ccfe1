package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/staffbot/internal/boards"
)

const pingTimeout = 3 * time.Second

// Server is the read-only status server
type Server struct {
	echo  *echo.Echo
	addr  string
	store boards.Store
}

// NewServer creates a status server reporting on store
func NewServer(addr string, store boards.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Debug()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Status request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:  e,
		addr:  addr,
		store: store,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/boards", s.listBoards)
	v1.GET("/boards/:channel", s.getBoard)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("Status server listening")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	if pinger, ok := s.store.(boards.Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) listBoards(c echo.Context) error {
	pairs, err := s.store.List(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list boards")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list boards",
		})
	}
	if pairs == nil {
		pairs = []boards.ChannelPair{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"boards": pairs,
		"count":  len(pairs),
	})
}

func (s *Server) getBoard(c echo.Context) error {
	channel := c.Param("channel")
	pair, err := s.store.Get(c.Request().Context(), channel)
	if errors.Is(err, boards.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "no board for channel " + channel,
		})
	}
	if err != nil {
		log.Error().Err(err).Str("requests_channel", channel).Msg("Failed to get board")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to get board",
		})
	}
	return c.JSON(http.StatusOK, pair)
}
