package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/modoocon/modoocon/internal/settings/domain"
)

func (s *Server) GetSettings(c *gin.Context) {
	current, err := s.settings.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": current})
}

func (s *Server) SaveSettings(c *gin.Context) {
	var req struct {
		RetentionYears int `json:"retention_years"`
		WarningDays    int `json:"warning_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	saved, err := s.settings.Save(c.Request.Context(), settingsdomain.SaveRequest{
		RetentionYears: req.RetentionYears,
		WarningDays:    req.WarningDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": saved})
}
