// Package server exposes the rename engine over HTTP: a REST API for
// preview, apply, undo, history, and profiles, plus MCP tools mounted
// at /mcp for agent clients.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/pkg/executor"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/home"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/profile"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("server")
}

// Server wires the engine's components behind the HTTP surface.
type Server struct {
	store    history.Store
	profiles *profile.Manager
	exec     *executor.Executor
	config   *home.Config
}

// New creates a server over the given store and profile manager.
func New(store history.Store, profiles *profile.Manager, config *home.Config) *Server {
	if config == nil {
		config = home.DefaultConfig()
	}
	return &Server{
		store:    store,
		profiles: profiles,
		exec:     executor.New(store),
		config:   config,
	}
}

// Start runs the HTTP server until it fails or the process exits.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(CORSMiddleware(nil))

	s.registerRoutes(router)

	mcpServer := server.NewMCPServer(
		"renamekit",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerMCPTools(mcpServer)

	mcpHTTPServer := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithStateLess(true),
	)
	router.Any("/mcp", gin.WrapH(mcpHTTPServer))

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	log.WithFields(logrus.Fields{
		"host":         s.config.Server.Host,
		"port":         s.config.Server.Port,
		"mcp_endpoint": "/mcp",
	}).Info("Server starting")

	return router.Run(addr)
}

func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.POST("/preview", s.handlePreview)
	api.POST("/apply", s.handleApply)
	api.POST("/undo", s.handleUndo)
	api.GET("/history", s.handleHistoryList)

	api.GET("/profiles", s.handleProfileList)
	api.POST("/profiles", s.handleProfileSave)
	api.GET("/profiles/:name", s.handleProfileGet)
	api.DELETE("/profiles/:name", s.handleProfileDelete)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// requestLogger logs every request with method, path, status, duration,
// and the client IP, preferring proxy-set headers over RemoteAddr.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		clientIP := c.Request.RemoteAddr
		if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
			clientIP = realIP
		} else if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
			clientIP = forwardedFor
			for i := 0; i < len(forwardedFor); i++ {
				if forwardedFor[i] == ',' {
					clientIP = forwardedFor[:i]
					break
				}
			}
		}

		c.Next()

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(startTime).Milliseconds(),
			"clientIP": clientIP,
		}).Info("Request completed")
	}
}
