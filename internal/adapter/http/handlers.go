package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/store"
)

type registerRequest struct {
	Name  string `json:"name" binding:"required"`
	LGA   string `json:"lga" binding:"required"`
	Phone string `json:"phone"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and lga are required"})
		return
	}

	user := s.deps.Users.Create(domain.User{
		Name:  strings.TrimSpace(req.Name),
		LGA:   strings.TrimSpace(req.LGA),
		Phone: strings.TrimSpace(req.Phone),
	})
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": s.deps.Users.List()})
}

// handleRiskCheck classifies a user's region without generating an advisory
// or touching the call log.
func (s *Server) handleRiskCheck(c *gin.Context) {
	userID := c.Param("user_id")
	user, ok := s.deps.Users.Get(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	coord, ok := s.deps.Resolver.Resolve(c.Request.Context(), user.LGA)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("coordinates not found for LGA: %s", user.LGA),
		})
		return
	}

	rainfall := s.deps.Rainfall.TrailingRainfall(c.Request.Context(), coord)
	level, factors := s.deps.Classifier.Classify(user.LGA, rainfall)

	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"lga":         user.LGA,
		"rainfall_mm": rainfall,
		"risk":        level,
		"factors":     factors,
	})
}

// handleCallUser runs the full evaluation pipeline for one user. Elevated
// outcomes carry the referral recommendation for the user's LGA.
func (s *Server) handleCallUser(c *gin.Context) {
	userID := c.Param("user_id")
	outcome := s.deps.Orchestrator.EvaluateAndNotify(c.Request.Context(), userID)

	switch outcome.Status {
	case domain.OutcomeUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})

	case domain.OutcomeCoordinatesMissing:
		user, _ := s.deps.Users.Get(userID)
		c.JSON(http.StatusOK, gin.H{
			"status":  outcome.Status,
			"message": fmt.Sprintf("coordinates not found for LGA: %s", user.LGA),
		})

	case domain.OutcomeLowRisk:
		user, _ := s.deps.Users.Get(userID)
		c.JSON(http.StatusOK, gin.H{
			"status":      outcome.Status,
			"risk":        outcome.RiskLevel,
			"rainfall_mm": outcome.RainfallMm,
			"message":     fmt.Sprintf("No significant risk detected for %s (rainfall: %.1fmm).", user.LGA, outcome.RainfallMm),
		})

	default:
		user, _ := s.deps.Users.Get(userID)
		recommendation := domain.DefaultRecommendation
		if center, ok := domain.HealthCenterFor(user.LGA); ok {
			recommendation = center.Recommendation
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         outcome.Status,
			"risk":           outcome.RiskLevel,
			"rainfall_mm":    outcome.RainfallMm,
			"factors":        outcome.Factors,
			"script":         outcome.Script,
			"audio_url":      outcome.AudioURL,
			"call_id":        outcome.CallID,
			"recommendation": recommendation,
		})
	}
}

type respondRequest struct {
	Response string `json:"response" binding:"required"`
}

func (s *Server) handleRespond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "response is required"})
		return
	}

	err := s.deps.Orchestrator.RecordResponse(c.Param("call_id"), req.Response)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "call log not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Response recorded"})
}

func (s *Server) handleListLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": s.deps.Orchestrator.Logs()})
}

// handleHealthCenter returns the referral facility for an LGA. Unknown LGAs
// fall back to the nearest facility when coordinates resolve, and to the
// generic recommendation otherwise.
func (s *Server) handleHealthCenter(c *gin.Context) {
	lga := c.Param("lga")

	if center, ok := domain.HealthCenterFor(lga); ok {
		c.JSON(http.StatusOK, gin.H{"lga": lga, "center": center})
		return
	}

	if coord, ok := s.deps.Resolver.Resolve(c.Request.Context(), lga); ok {
		if center, ok := domain.NearestHealthCenter(coord); ok {
			c.JSON(http.StatusOK, gin.H{"lga": lga, "center": center, "nearest": true})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"lga": lga, "recommendation": domain.DefaultRecommendation})
}

func (s *Server) handleDebugCoordinates(c *gin.Context) {
	lga := c.Query("lga")
	if lga == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lga query parameter is required"})
		return
	}

	coord, ok := s.deps.Resolver.Resolve(c.Request.Context(), lga)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"lga": lga, "error": "coordinates not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lga": lga, "coordinates": coord})
}

func (s *Server) handleDebugRainfall(c *gin.Context) {
	lga := c.Query("lga")
	if lga == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lga query parameter is required"})
		return
	}

	coord, ok := s.deps.Resolver.Resolve(c.Request.Context(), lga)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"lga": lga, "error": "coordinates not found"})
		return
	}

	rainfall := s.deps.Rainfall.TrailingRainfall(c.Request.Context(), coord)
	c.JSON(http.StatusOK, gin.H{"lga": lga, "rainfall_mm": rainfall})
}

func (s *Server) handleDebugRisk(c *gin.Context) {
	lga := c.Query("lga")
	if lga == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lga query parameter is required"})
		return
	}

	coord, ok := s.deps.Resolver.Resolve(c.Request.Context(), lga)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"lga": lga, "error": "coordinates not found"})
		return
	}

	rainfall := s.deps.Rainfall.TrailingRainfall(c.Request.Context(), coord)
	level, factors := s.deps.Classifier.Classify(lga, rainfall)

	c.JSON(http.StatusOK, gin.H{
		"lga":         lga,
		"coordinates": coord,
		"rainfall_mm": rainfall,
		"is_hotspot":  domain.IsHotspot(lga),
		"risk":        level,
		"factors":     factors,
	})
}
