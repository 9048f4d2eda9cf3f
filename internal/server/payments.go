package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/modoocon/modoocon/internal/payment/domain"
)

type confirmCardRequest struct {
	EventID    string `json:"event_id"`
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
}

func (s *Server) ConfirmCardPayment(c *gin.Context) {
	var req confirmCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	payment, err := s.payments.ConfirmCard(c.Request.Context(), paymentdomain.ConfirmCardRequest{
		UserID:     currentUserID(c),
		EventID:    strings.TrimSpace(req.EventID),
		PaymentKey: strings.TrimSpace(req.PaymentKey),
		OrderID:    strings.TrimSpace(req.OrderID),
		Amount:     req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) CreatePayPalOrder(c *gin.Context) {
	var req struct {
		EventID string `json:"event_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	order, err := s.payments.CreatePayPalOrder(c.Request.Context(), paymentdomain.CreatePayPalOrderRequest{
		UserID:  currentUserID(c),
		EventID: strings.TrimSpace(req.EventID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) CapturePayPalOrder(c *gin.Context) {
	var req struct {
		EventID string `json:"event_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	payment, err := s.payments.CapturePayPalOrder(c.Request.Context(), paymentdomain.CapturePayPalOrderRequest{
		UserID:          currentUserID(c),
		EventID:         strings.TrimSpace(req.EventID),
		ProviderOrderID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) CancelPayment(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	paymentID := strings.TrimSpace(c.Param("id"))
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	// Non-staff callers may only cancel their own payments.
	if !user.IsStaff {
		payment, err := s.payments.GetByID(c.Request.Context(), paymentID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if payment.UserID == nil || *payment.UserID != user.ID {
			AbortWithError(c, ErrForbidden)
			return
		}
	}

	payment, err := s.payments.Cancel(c.Request.Context(), paymentdomain.CancelRequest{
		PaymentID: paymentID,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) MyPayments(c *gin.Context) {
	payments, err := s.payments.History(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) ListEventPayments(c *gin.Context) {
	payments, err := s.payments.ListByEvent(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments})
}

type recordManualRequest struct {
	AttendeeID    string    `json:"attendee_id"`
	PayerName     string    `json:"payer_name"`
	TransferredAt time.Time `json:"transferred_at"`
	Note          string    `json:"note"`
}

func (s *Server) RecordManualPayment(c *gin.Context) {
	var req recordManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "malformed"))
		return
	}

	payment, err := s.payments.RecordManual(c.Request.Context(), paymentdomain.RecordManualRequest{
		AttendeeID:    strings.TrimSpace(req.AttendeeID),
		PayerName:     strings.TrimSpace(req.PayerName),
		TransferredAt: req.TransferredAt,
		Note:          req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}
