package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
)

func (s *Server) ListPublishedEvents(c *gin.Context) {
	events, err := s.events.ListPublished(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (s *Server) GetEventBySlug(c *gin.Context) {
	event, err := s.events.GetBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !event.Published {
		AbortWithError(c, eventdomain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": event})
}

func (s *Server) ListAllEvents(c *gin.Context) {
	events, err := s.events.ListAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

type createEventRequest struct {
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	StartsAt             time.Time `json:"starts_at"`
	EndsAt               time.Time `json:"ends_at"`
	RegistrationOpensAt  time.Time `json:"registration_opens_at"`
	RegistrationClosesAt time.Time `json:"registration_closes_at"`
	Capacity             int       `json:"capacity"`
	FeeAmount            int64     `json:"fee_amount"`
	RequiresInstitution  bool      `json:"requires_institution"`
	InvitationOnly       bool      `json:"invitation_only"`
	InvitationCode       string    `json:"invitation_code"`
	MaxVotes             int       `json:"max_votes"`
}

func (s *Server) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	event, err := s.events.Create(c.Request.Context(), eventdomain.CreateEventRequest{
		Name:                 strings.TrimSpace(req.Name),
		Description:          req.Description,
		StartsAt:             req.StartsAt,
		EndsAt:               req.EndsAt,
		RegistrationOpensAt:  req.RegistrationOpensAt,
		RegistrationClosesAt: req.RegistrationClosesAt,
		Capacity:             req.Capacity,
		FeeAmount:            req.FeeAmount,
		RequiresInstitution:  req.RequiresInstitution,
		InvitationOnly:       req.InvitationOnly,
		InvitationCode:       req.InvitationCode,
		MaxVotes:             req.MaxVotes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": event})
}

type updateEventRequest struct {
	Name                 *string    `json:"name"`
	Description          *string    `json:"description"`
	StartsAt             *time.Time `json:"starts_at"`
	EndsAt               *time.Time `json:"ends_at"`
	RegistrationOpensAt  *time.Time `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at"`
	Capacity             *int       `json:"capacity"`
	FeeAmount            *int64     `json:"fee_amount"`
	RequiresInstitution  *bool      `json:"requires_institution"`
	InvitationOnly       *bool      `json:"invitation_only"`
	InvitationCode       *string    `json:"invitation_code"`
	MaxVotes             *int       `json:"max_votes"`
}

func (s *Server) UpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	event, err := s.events.Update(c.Request.Context(), eventdomain.UpdateEventRequest{
		ID:                   strings.TrimSpace(c.Param("id")),
		Name:                 req.Name,
		Description:          req.Description,
		StartsAt:             req.StartsAt,
		EndsAt:               req.EndsAt,
		RegistrationOpensAt:  req.RegistrationOpensAt,
		RegistrationClosesAt: req.RegistrationClosesAt,
		Capacity:             req.Capacity,
		FeeAmount:            req.FeeAmount,
		RequiresInstitution:  req.RequiresInstitution,
		InvitationOnly:       req.InvitationOnly,
		InvitationCode:       req.InvitationCode,
		MaxVotes:             req.MaxVotes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": event})
}

func (s *Server) SetEventPublished(c *gin.Context) {
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	event, err := s.events.SetPublished(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Published)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": event})
}

func (s *Server) ListQuestions(c *gin.Context) {
	questions, err := s.events.ListQuestions(c.Request.Context(), strings.TrimSpace(c.Param("id")), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": questions})
}

type upsertQuestionRequest struct {
	ID       string   `json:"id"`
	Position int      `json:"position"`
	Text     string   `json:"text"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
	Active   *bool    `json:"active"`
}

func (s *Server) UpsertQuestion(c *gin.Context) {
	var req upsertQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	question, err := s.events.UpsertQuestion(c.Request.Context(), eventdomain.UpsertQuestionRequest{
		ID:       strings.TrimSpace(req.ID),
		EventID:  strings.TrimSpace(c.Param("id")),
		Position: req.Position,
		Text:     strings.TrimSpace(req.Text),
		Kind:     req.Kind,
		Required: req.Required,
		Options:  req.Options,
		Active:   req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": question})
}

type upsertTemplateRequest struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) UpsertTemplate(c *gin.Context) {
	var req upsertTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	template, err := s.events.UpsertTemplate(c.Request.Context(), eventdomain.UpsertTemplateRequest{
		EventID: strings.TrimSpace(c.Param("id")),
		Kind:    strings.TrimSpace(req.Kind),
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (s *Server) ListEventAdmins(c *gin.Context) {
	admins, err := s.events.ListAdmins(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": admins})
}

func (s *Server) GrantEventAdmin(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	if err := s.events.GrantAdmin(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.UserID)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RevokeEventAdmin(c *gin.Context) {
	if err := s.events.RevokeAdmin(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(c.Param("userId"))); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
