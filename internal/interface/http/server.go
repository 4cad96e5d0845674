// Package http serves the risk dashboard API: login, the latest snapshot
// view, and per-student risk detail. The API is read-only over the pipeline's
// output; assessments are never triggered from here.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/edusignal/dropout-radar/internal/application/query"
	"github.com/edusignal/dropout-radar/internal/domain/auth"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/pkg/logger"
)

// Config contains HTTP server configuration.
type Config struct {
	// Host is the address to bind (default "0.0.0.0").
	Host string

	// Port is the port to listen on (default 8080).
	Port int

	// ReadTimeout bounds reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration

	// AllowedOrigins lists CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Dependencies contains everything the HTTP handlers need.
type Dependencies struct {
	Dashboard   *query.GetDashboardHandler
	StudentRisk *query.GetStudentRiskHandler
	Users       auth.Repository
	Logger      *logger.Logger
}

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	config Config
	deps   Dependencies
	log    *logger.Logger
	srv    *http.Server
}

// NewServer builds the server and its route table.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		log:    deps.Logger.With(logger.Component("http")),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")
	{
		api.POST("/login", s.login)
		api.GET("/dashboard", s.getDashboard)
		api.GET("/students/:id/risk", s.getStudentRisk)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.srv = &http.Server{
		Addr:         config.Address(),
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.log.Info("http server starting", logger.String("addr", s.config.Address()))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password required"})
		return
	}

	user, err := s.deps.Users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		// Same response whether the user is missing or the password is
		// wrong, to avoid username probing.
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid username or password"})
		return
	}
	if err := user.VerifyPassword(req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid username or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"username":  user.Username,
			"role":      string(user.Role),
			"mentor_id": user.MentorID,
		},
	})
}

func (s *Server) getDashboard(c *gin.Context) {
	view, err := s.deps.Dashboard.Execute(c.Request.Context())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No assessment snapshot exists yet"})
			return
		}
		s.log.Error("dashboard read failed", logger.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load dashboard"})
		return
	}

	// Mentors can scope the view to their own students.
	if mentorID := c.Query("mentor_id"); mentorID != "" {
		view = filterByMentor(view, mentorID)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": view})
}

func (s *Server) getStudentRisk(c *gin.Context) {
	view, err := s.deps.StudentRisk.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Student or assessment not found"})
			return
		}
		if errors.Is(err, shared.ErrInvalidID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Student id is required"})
			return
		}
		s.log.Error("student risk read failed", logger.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load student risk"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "student": view})
}

// filterByMentor narrows a dashboard view to one mentor's students and
// recomputes the counts. The cached full view is never mutated.
func filterByMentor(view *query.DashboardView, mentorID string) *query.DashboardView {
	filtered := &query.DashboardView{Date: view.Date}
	for _, row := range view.Rows {
		if row.MentorID != mentorID {
			continue
		}
		filtered.Rows = append(filtered.Rows, row)
		switch row.Level {
		case "High":
			filtered.HighCount++
		case "Medium":
			filtered.MediumCount++
		default:
			filtered.LowCount++
		}
	}
	filtered.Total = len(filtered.Rows)
	return filtered
}
