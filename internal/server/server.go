package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/store"
)

// Prioritizer is the pipeline surface the HTTP layer depends on
type Prioritizer interface {
	Prioritize(ctx context.Context, claims []model.Claim) (*model.PriorityReport, error)
}

// Server exposes the prioritization pipeline to the front-end collaborator
type Server struct {
	pipeline Prioritizer
}

// NewServer creates a server over the given pipeline
func NewServer(pipeline Prioritizer) *Server {
	return &Server{pipeline: pipeline}
}

// prioritizeRequest is the POST /prioritize body
type prioritizeRequest struct {
	Texts []string `json:"texts"`
}

// rankedClaimResponse is one row of the prioritized report
type rankedClaimResponse struct {
	Text            string  `json:"text"`
	CheckWorthiness float64 `json:"check_worthiness"`
	Rationale       string  `json:"rationale"`
}

type prioritizeResponse struct {
	Claims []rankedClaimResponse `json:"claims"`
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.POST("/prioritize", s.handlePrioritize)
	r.GET("/status", s.handleStatus)

	return r
}

// Run serves the API on addr until the listener fails
func (s *Server) Run(addr string) error {
	logrus.WithField("addr", addr).Info("serving prioritization API")
	return s.Router().Run(addr)
}

// handlePrioritize accepts a batch of claim texts and responds with the
// full ranked report. Partial degradation is a 200: failed claims are
// flagged through their rationale, never dropped. A corpus store outage
// is a single 503, not N failure rows.
func (s *Server) handlePrioritize(c *gin.Context) {
	var req prioritizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be {\"texts\": [\"...\"]}"})
		return
	}

	claims := make([]model.Claim, 0, len(req.Texts))
	for _, text := range req.Texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		claims = append(claims, model.NewClaim(uuid.NewString(), text))
	}

	if len(claims) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no non-empty claim texts submitted"})
		return
	}

	report, err := s.pipeline.Prioritize(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "evidence corpus is unreachable"})
			return
		}
		logrus.WithError(err).Error("prioritization failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prioritization failed"})
		return
	}

	resp := prioritizeResponse{Claims: make([]rankedClaimResponse, len(report.Entries))}
	for i, entry := range report.Entries {
		resp.Claims[i] = rankedClaimResponse{
			Text:            entry.Claim.Text,
			CheckWorthiness: entry.Verdict.CheckWorthiness,
			Rationale:       entry.Verdict.Rationale,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// handleStatus is a simple liveness check for the front-end
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Info("request handled")
	}
}
