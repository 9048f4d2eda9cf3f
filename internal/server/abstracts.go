package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	abstractdomain "github.com/modoocon/modoocon/internal/abstract/domain"
)

type submitAbstractRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) SubmitAbstract(c *gin.Context) {
	var req submitAbstractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	event, err := s.publishedEventBySlug(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	abstract, err := s.abstracts.Submit(c.Request.Context(), abstractdomain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  currentUserID(c),
		Title:   req.Title,
		Body:    req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": abstract})
}

func (s *Server) MyAbstract(c *gin.Context) {
	event, err := s.publishedEventBySlug(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	abstract, err := s.abstracts.MyAbstract(c.Request.Context(), event.ID.String(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": abstract})
}

func (s *Server) WithdrawAbstract(c *gin.Context) {
	err := s.abstracts.Withdraw(c.Request.Context(), strings.TrimSpace(c.Param("id")), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) VoteAbstract(c *gin.Context) {
	if err := s.requireReviewer(c); err != nil {
		AbortWithError(c, err)
		return
	}

	err := s.abstracts.Vote(c.Request.Context(), abstractdomain.VoteRequest{
		AbstractID: strings.TrimSpace(c.Param("id")),
		ReviewerID: currentUserID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) UnvoteAbstract(c *gin.Context) {
	if err := s.requireReviewer(c); err != nil {
		AbortWithError(c, err)
		return
	}

	err := s.abstracts.Unvote(c.Request.Context(), abstractdomain.VoteRequest{
		AbstractID: strings.TrimSpace(c.Param("id")),
		ReviewerID: currentUserID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) TallyAbstracts(c *gin.Context) {
	items, err := s.abstracts.Tally(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) DecideAbstract(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	abstract, err := s.abstracts.Decide(c.Request.Context(), abstractdomain.DecideRequest{
		AbstractID: strings.TrimSpace(c.Param("abstractId")),
		Status:     strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": abstract})
}

// requireReviewer checks the caller is event staff for the event named by the
// slug route parameter. Reviewers are event admins.
func (s *Server) requireReviewer(c *gin.Context) error {
	event, err := s.publishedEventBySlug(c)
	if err != nil {
		return err
	}
	allowed, err := s.events.IsEventStaff(c.Request.Context(), event.ID.String(), currentUserID(c))
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}
