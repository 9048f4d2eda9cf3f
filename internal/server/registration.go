package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	registrationdomain "github.com/modoocon/modoocon/internal/registration/domain"
)

type registerRequest struct {
	InvitationCode string                      `json:"invitation_code"`
	InstitutionID  string                      `json:"institution_id"`
	Answers        []registrationdomain.Answer `json:"answers"`
}

func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	event, err := s.publishedEventBySlug(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	registration, err := s.registrations.Register(c.Request.Context(), registrationdomain.RegisterRequest{
		EventID:        event.ID.String(),
		UserID:         currentUserID(c),
		InvitationCode: req.InvitationCode,
		InstitutionID:  req.InstitutionID,
		Answers:        req.Answers,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": registration})
}

func (s *Server) CancelRegistration(c *gin.Context) {
	event, err := s.publishedEventBySlug(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	err = s.registrations.Cancel(c.Request.Context(), registrationdomain.CancelRequest{
		EventID: event.ID.String(),
		UserID:  currentUserID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) MyRegistrations(c *gin.Context) {
	registrations, err := s.registrations.MyRegistrations(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": registrations})
}

func (s *Server) Roster(c *gin.Context) {
	registrations, err := s.registrations.Roster(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": registrations})
}

func (s *Server) publishedEventBySlug(c *gin.Context) (eventdomain.Event, error) {
	event, err := s.events.GetBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		return eventdomain.Event{}, err
	}
	if !event.Published {
		return eventdomain.Event{}, eventdomain.ErrNotFound
	}
	return event, nil
}
