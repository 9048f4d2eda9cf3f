package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	institutiondomain "github.com/modoocon/modoocon/internal/institution/domain"
)

func (s *Server) SearchInstitutions(c *gin.Context) {
	var query struct {
		Q     string `form:"q"`
		Limit int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, newValidationError("query", "malformed"))
		return
	}

	institutions, err := s.institutions.Search(c.Request.Context(), institutiondomain.SearchInstitutionRequest{
		Prefix: strings.TrimSpace(query.Q),
		Limit:  query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": institutions})
}

type institutionRequest struct {
	NameKO string `json:"name_ko"`
	NameEN string `json:"name_en"`
}

func (s *Server) CreateInstitution(c *gin.Context) {
	var req institutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	institution, err := s.institutions.Create(c.Request.Context(), institutiondomain.CreateInstitutionRequest{
		NameKO: strings.TrimSpace(req.NameKO),
		NameEN: strings.TrimSpace(req.NameEN),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": institution})
}

func (s *Server) UpdateInstitution(c *gin.Context) {
	var req institutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	institution, err := s.institutions.Update(c.Request.Context(), institutiondomain.UpdateInstitutionRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		NameKO: strings.TrimSpace(req.NameKO),
		NameEN: strings.TrimSpace(req.NameEN),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": institution})
}
