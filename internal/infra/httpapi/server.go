package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"campus_notifier/internal/app"
	"campus_notifier/internal/domain/notification"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const (
	readHeaderTimeout = 10 * time.Second
	defaultListLimit  = 50
	maxListLimit      = 200
)

// Options tunes request handling.
type Options struct {
	Addr string
	// MaxConcurrentCallables caps callables running at the same time.
	MaxConcurrentCallables int64
	// Timeout bounds one callable request or one triggered fan-out.
	Timeout time.Duration
}

// Server exposes callables, reactive triggers and health over HTTP.
type Server struct {
	router    *gin.Engine
	http      *http.Server
	callables *app.CallableService
	triggers  *app.TriggerService
	records   notification.Repository
	limiter   *semaphore.Weighted
	timeout   time.Duration
	logger    *logrus.Entry
	now       func() time.Time
	inflight  sync.WaitGroup
}

func NewServer(
	opts Options,
	callables *app.CallableService,
	triggers *app.TriggerService,
	records notification.Repository,
	logger *logrus.Entry,
) *Server {
	router := gin.New()
	logger = logger.WithField("component", "http")
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	s := &Server{
		router:    router,
		callables: callables,
		triggers:  triggers,
		records:   records,
		limiter:   semaphore.NewWeighted(opts.MaxConcurrentCallables),
		timeout:   opts.Timeout,
		logger:    logger,
		now:       time.Now,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/v1")
	{
		callables := v1.Group("/callables")
		callables.Use(s.limitCallables())
		{
			callables.POST("/sendArticleNotification", handleCallable(s, s.callables.SendArticleNotification))
			callables.POST("/sendPollNotification", handleCallable(s, s.callables.SendPollNotification))
			callables.POST("/sendProposalNotification", handleCallable(s, s.callables.SendProposalNotification))
			callables.POST("/sendEventNotification", handleCallable(s, s.callables.SendEventNotification))
		}

		triggers := v1.Group("/triggers")
		{
			triggers.POST("/articles", s.handleArticleCreated())
			triggers.POST("/polls", s.handlePollCreated())
			triggers.POST("/events", s.handleEventCreated())
			triggers.POST("/proposals", s.handleProposalUpdated())
			triggers.POST("/proposals/:id/replies", s.handleReplyCreated())
		}

		v1.GET("/users/:id/notifications", s.handleListNotifications())
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "campus_notifier"})
	})
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for triggered fan-outs still running.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.Wait()
	return err
}

// Wait blocks until every accepted trigger has finished.
func (s *Server) Wait() {
	s.inflight.Wait()
}

func (s *Server) handleListNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultListLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxListLimit)
		}

		records, err := s.records.ListByUser(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", c.Param("id")).Error("Failed to list notifications")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
			return
		}

		out := make([]notificationResponse, 0, len(records))
		for _, n := range records {
			out = append(out, toNotificationResponse(n))
		}
		c.JSON(http.StatusOK, gin.H{"notifications": out})
	}
}

type notificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	SourceID  string            `json:"sourceId"`
	IsRead    bool              `json:"isRead"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

func toNotificationResponse(n *notification.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		SourceID:  n.SourceID,
		IsRead:    n.IsRead,
		Timestamp: n.CreatedAt,
		Data:      n.Data,
	}
}

func requestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	}
}
