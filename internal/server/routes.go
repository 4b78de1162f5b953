package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/editorctl/editorctl/internal/correlator"
	"github.com/editorctl/editorctl/internal/registry"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": s.name,
			"version": "0.1.0",
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"uptime": time.Since(s.started).String(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/connections", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.reg.Status())
	})

	s.router.POST("/connections", func(c *gin.Context) {
		var req struct {
			Target string `json:"target"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target is required"})
			return
		}
		status, err := s.reg.Connect(c.Request.Context(), req.Target)
		if err != nil {
			respondRegistryError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	})

	s.router.DELETE("/connections", func(c *gin.Context) {
		if err := s.reg.Disconnect(c.Query("target")); err != nil {
			respondRegistryError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"disconnected": true})
	})

	s.router.GET("/connections/active", func(c *gin.Context) {
		active := s.reg.Active()
		if active == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active connection"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"active": active})
	})

	s.router.PUT("/connections/active", func(c *gin.Context) {
		var req struct {
			Target string `json:"target"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target is required"})
			return
		}
		if err := s.reg.SetActive(req.Target); err != nil {
			respondRegistryError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"active": req.Target})
	})

	s.router.GET("/discover", func(c *gin.Context) {
		root := c.Query("root")
		if root == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "root is required"})
			return
		}
		projects, err := s.reg.Discover(root)
		if err != nil {
			respondRegistryError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": projects})
	})

	s.router.POST("/connections/command", func(c *gin.Context) {
		var req struct {
			Target  string         `json:"target"`
			Command string         `json:"command"`
			Params  map[string]any `json:"params"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Command == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
			return
		}
		data, err := s.reg.Command(c.Request.Context(), req.Target, req.Command, req.Params)
		if err != nil {
			respondRegistryError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
	})
}

func respondRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrNoActiveConnection),
		errors.Is(err, registry.ErrNotConnected):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrPeerRequired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, correlator.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, correlator.ErrPeerDisconnected):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
