package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/clock"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	exchangedomain "github.com/modoocon/modoocon/internal/exchange/domain"
	identitydomain "github.com/modoocon/modoocon/internal/identity/domain"
	"github.com/modoocon/modoocon/internal/mailer"
	"github.com/modoocon/modoocon/internal/observability/metrics"
	"github.com/modoocon/modoocon/internal/payment/domain"
	"github.com/modoocon/modoocon/internal/payment/gateway"
	"github.com/modoocon/modoocon/internal/payment/gateway/card"
	"github.com/modoocon/modoocon/internal/payment/gateway/paypal"
	"github.com/modoocon/modoocon/internal/payment/lock"
	"github.com/modoocon/modoocon/internal/receipt"
	registrationdomain "github.com/modoocon/modoocon/internal/registration/domain"
	"github.com/modoocon/modoocon/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockTTL  = 30 * time.Second
	lockWait = 5 * time.Second
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Metrics       *metrics.Metrics
	Repo          domain.Repository
	Locker        lock.Locker
	Card          *card.Client
	PayPal        *paypal.Client
	Exchange      exchangedomain.Service
	Events        eventdomain.Service
	Users         identitydomain.Service
	Registrations registrationdomain.Service
	Mailer        mailer.Dispatcher
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	metrics       *metrics.Metrics
	repo          domain.Repository
	locker        lock.Locker
	card          *card.Client
	paypal        *paypal.Client
	exchange      exchangedomain.Service
	events        eventdomain.Service
	users         identitydomain.Service
	registrations registrationdomain.Service
	mailer        mailer.Dispatcher
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		metrics:       p.Metrics,
		repo:          p.Repo,
		locker:        p.Locker,
		card:          p.Card,
		paypal:        p.PayPal,
		exchange:      p.Exchange,
		events:        p.Events,
		users:         p.Users,
		registrations: p.Registrations,
		mailer:        p.Mailer,
	}
}

func (s *Service) ConfirmCard(ctx context.Context, req domain.ConfirmCardRequest) (domain.Payment, error) {
	attendee, err := s.registrations.FindAttendee(ctx, req.EventID, req.UserID)
	if err != nil {
		return domain.Payment{}, err
	}
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return domain.Payment{}, err
	}
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return domain.Payment{}, err
	}

	release, err := s.lockAttendee(ctx, attendee.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	defer release()

	if err := s.ensureNotPaid(ctx, attendee.ID); err != nil {
		return domain.Payment{}, err
	}
	if req.Amount != event.FeeAmount {
		return domain.Payment{}, &gateway.AmountMismatchError{Want: event.FeeAmount, Got: req.Amount}
	}

	provider, err := s.card.Confirm(ctx, gateway.ConfirmRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    attendee.OrderID,
		Amount:     req.Amount,
	})
	if err != nil {
		s.metrics.RecordPaymentEvent(ctx, domain.MethodCard, "failed")
		return domain.Payment{}, err
	}

	payment, err := s.persistCompleted(ctx, attendee, event, user, domain.MethodCard, provider)
	if err != nil {
		return domain.Payment{}, err
	}

	s.metrics.RecordPaymentEvent(ctx, domain.MethodCard, "completed")
	s.enqueueReceipt(ctx, payment, user)
	return payment, nil
}

func (s *Service) CreatePayPalOrder(ctx context.Context, req domain.CreatePayPalOrderRequest) (domain.PayPalOrder, error) {
	attendee, err := s.registrations.FindAttendee(ctx, req.EventID, req.UserID)
	if err != nil {
		return domain.PayPalOrder{}, err
	}
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return domain.PayPalOrder{}, err
	}

	if err := s.ensureNotPaid(ctx, attendee.ID); err != nil {
		return domain.PayPalOrder{}, err
	}

	usd, err := s.exchange.KRWToUSD(ctx, event.FeeAmount)
	if err != nil {
		return domain.PayPalOrder{}, err
	}
	usdValue := usd.StringFixed(2)

	providerOrderID, err := s.paypal.CreateOrder(ctx, attendee.OrderID, usdValue)
	if err != nil {
		s.metrics.RecordPaymentEvent(ctx, domain.MethodPayPal, "create_failed")
		return domain.PayPalOrder{}, err
	}

	s.metrics.RecordPaymentEvent(ctx, domain.MethodPayPal, "created")
	return domain.PayPalOrder{ProviderOrderID: providerOrderID, USDValue: usdValue}, nil
}

func (s *Service) CapturePayPalOrder(ctx context.Context, req domain.CapturePayPalOrderRequest) (domain.Payment, error) {
	attendee, err := s.registrations.FindAttendee(ctx, req.EventID, req.UserID)
	if err != nil {
		return domain.Payment{}, err
	}
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return domain.Payment{}, err
	}
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return domain.Payment{}, err
	}

	release, err := s.lockAttendee(ctx, attendee.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	defer release()

	if err := s.ensureNotPaid(ctx, attendee.ID); err != nil {
		return domain.Payment{}, err
	}

	// The captured amount is whatever the provider settled; it is trusted
	// over the local quote.
	provider, err := s.paypal.Confirm(ctx, gateway.ConfirmRequest{
		PaymentKey: req.ProviderOrderID,
		OrderID:    attendee.OrderID,
	})
	if err != nil {
		s.metrics.RecordPaymentEvent(ctx, domain.MethodPayPal, "failed")
		return domain.Payment{}, err
	}

	payment, err := s.persistCompleted(ctx, attendee, event, user, domain.MethodPayPal, provider)
	if err != nil {
		return domain.Payment{}, err
	}

	s.metrics.RecordPaymentEvent(ctx, domain.MethodPayPal, "completed")
	s.enqueueReceipt(ctx, payment, user)
	return payment, nil
}

func (s *Service) RecordManual(ctx context.Context, req domain.RecordManualRequest) (domain.Payment, error) {
	attendee, err := s.registrations.GetAttendee(ctx, req.AttendeeID)
	if err != nil {
		return domain.Payment{}, err
	}
	event, err := s.events.GetByID(ctx, attendee.EventID.String())
	if err != nil {
		return domain.Payment{}, err
	}

	var user identitydomain.User
	if attendee.UserID != nil {
		user, err = s.users.GetByID(ctx, attendee.UserID.String())
		if err != nil {
			return domain.Payment{}, err
		}
	} else {
		user.Email = attendee.UserEmail
	}

	release, err := s.lockAttendee(ctx, attendee.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	defer release()

	if err := s.ensureNotPaid(ctx, attendee.ID); err != nil {
		return domain.Payment{}, err
	}

	now := s.clock.Now()
	payment := s.newPayment(attendee, event, user, domain.MethodManual)
	payment.Status = domain.StatusCompleted
	payment.Amount = event.FeeAmount
	payment.Currency = event.FeeCurrency
	payment.CompletedAt = &now

	detail := domain.ManualTransactionDetail{
		PaymentID:     payment.ID,
		PayerName:     strings.TrimSpace(req.PayerName),
		TransferredAt: req.TransferredAt,
		Note:          strings.TrimSpace(req.Note),
		CreatedAt:     now,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyPaid
			}
			return err
		}
		return s.repo.InsertManualDetail(ctx, tx, &detail)
	})
	if txErr != nil {
		return domain.Payment{}, txErr
	}

	s.metrics.RecordPaymentEvent(ctx, domain.MethodManual, "completed")
	if attendee.UserID != nil {
		s.enqueueReceipt(ctx, payment, user)
	}
	return payment, nil
}

func (s *Service) Cancel(ctx context.Context, req domain.CancelRequest) (domain.Payment, error) {
	id, err := s.parseID(req.PaymentID)
	if err != nil {
		return domain.Payment{}, err
	}

	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	if payment.Status != domain.StatusCompleted {
		return domain.Payment{}, domain.ErrNotCompleted
	}

	if payment.AttendeeID != nil {
		release, err := s.lockAttendee(ctx, *payment.AttendeeID)
		if err != nil {
			return domain.Payment{}, err
		}
		defer release()
	}

	switch payment.Method {
	case domain.MethodCard:
		if err := s.card.Cancel(ctx, payment.ProviderPaymentID, req.Reason); err != nil {
			return domain.Payment{}, err
		}
	case domain.MethodPayPal:
		if err := s.paypal.Cancel(ctx, payment.ProviderPaymentID, req.Reason); err != nil {
			return domain.Payment{}, err
		}
	}

	now := s.clock.Now()
	payment.Status = domain.StatusCancelled
	payment.CancelledAt = &now
	payment.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, payment); err != nil {
		return domain.Payment{}, err
	}

	s.metrics.RecordPaymentEvent(ctx, payment.Method, "cancelled")
	return *payment, nil
}

func (s *Service) HasCompleted(ctx context.Context, rawAttendeeID string) (bool, error) {
	attendeeID, err := s.parseID(rawAttendeeID)
	if err != nil {
		return false, err
	}
	existing, err := s.repo.FindCompletedByAttendee(ctx, s.db, attendeeID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *Service) History(ctx context.Context, rawUserID string) ([]domain.Payment, error) {
	userID, err := s.parseID(rawUserID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) ListByEvent(ctx context.Context, rawEventID string) ([]domain.Payment, error) {
	eventID, err := s.parseID(rawEventID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Payment, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Payment{}, err
	}
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	return *payment, nil
}

func (s *Service) lockAttendee(ctx context.Context, attendeeID snowflake.ID) (func(), error) {
	key := fmt.Sprintf("payment:attendee:%d", attendeeID)
	token, err := lock.Acquire(ctx, s.locker, key, lockTTL, lockWait)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("release payment lock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *Service) ensureNotPaid(ctx context.Context, attendeeID snowflake.ID) error {
	existing, err := s.repo.FindCompletedByAttendee(ctx, s.db, attendeeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrAlreadyPaid
	}
	return nil
}

func (s *Service) newPayment(attendee registrationdomain.Attendee, event eventdomain.Event, user identitydomain.User, method string) domain.Payment {
	now := s.clock.Now()
	attendeeID := attendee.ID
	return domain.Payment{
		ID:              s.genID.Generate(),
		AttendeeID:      &attendeeID,
		EventID:         event.ID,
		UserID:          attendee.UserID,
		Method:          method,
		Status:          domain.StatusPending,
		Currency:        event.FeeCurrency,
		OrderID:         attendee.OrderID,
		EventName:       event.Name,
		PayerEmail:      user.Email,
		PayerName:       user.Name,
		InstituteNameKO: attendee.InstituteNameKO,
		InstituteNameEN: attendee.InstituteNameEN,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *Service) persistCompleted(ctx context.Context, attendee registrationdomain.Attendee, event eventdomain.Event, user identitydomain.User, method string, provider *gateway.ProviderPayment) (domain.Payment, error) {
	now := s.clock.Now()
	payment := s.newPayment(attendee, event, user, method)
	payment.Status = domain.StatusCompleted
	payment.Amount = provider.Amount
	if provider.Currency != "" {
		payment.Currency = provider.Currency
	}
	payment.ProviderPaymentID = provider.ProviderPaymentID
	payment.CompletedAt = &now

	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost a pay-twice race despite the lock. The gateway charge
			// stands; staff resolve it through cancel.
			s.log.Error("completed payment already exists",
				zap.String("order_id", payment.OrderID),
				zap.String("method", method),
			)
			return domain.Payment{}, domain.ErrAlreadyPaid
		}
		return domain.Payment{}, err
	}
	return payment, nil
}

func (s *Service) enqueueReceipt(ctx context.Context, payment domain.Payment, user identitydomain.User) {
	if user.Email == "" {
		return
	}

	tmpl, err := s.events.ResolveTemplate(ctx, payment.EventID.String(), eventdomain.TemplatePaymentReceipt)
	if err != nil {
		s.log.Warn("resolve receipt template failed", zap.Error(err))
		return
	}

	amount := formatAmount(payment.Amount, payment.Currency)
	paidAt := ""
	if payment.CompletedAt != nil {
		paidAt = payment.CompletedAt.Format("2006-01-02 15:04")
	}

	receiptURL := ""
	if payment.Method == domain.MethodCard {
		if url, err := s.card.ReceiptURL(ctx, payment.ProviderPaymentID); err == nil {
			receiptURL = url
		}
	}

	pdf, err := receipt.Build(receipt.Data{
		EventName:  payment.EventName,
		OrderID:    payment.OrderID,
		PayerName:  payment.PayerName,
		PayerEmail: payment.PayerEmail,
		Method:     payment.Method,
		Amount:     amount,
		PaidAt:     paidAt,
		ReceiptURL: receiptURL,
	})
	if err != nil {
		s.log.Warn("build receipt pdf failed", zap.Error(err))
		pdf = nil
	}

	vars := map[string]string{
		"event_name": payment.EventName,
		"user_name":  user.Name,
		"order_id":   payment.OrderID,
		"amount":     amount,
	}
	msg := mailer.Message{
		To:      user.Email,
		Subject: mailer.Render(tmpl.Subject, vars),
		Body:    mailer.Render(tmpl.Body, vars),
		Kind:    tmpl.Kind,
	}
	if pdf != nil {
		msg.Attachments = []mailer.Attachment{{
			Filename:    "receipt-" + payment.OrderID + ".pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}}
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("enqueue receipt email failed",
			zap.String("order_id", payment.OrderID),
			zap.Error(err),
		)
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func formatAmount(amount int64, currency string) string {
	if strings.EqualFold(currency, "USD") {
		return decimal.New(amount, -2).StringFixed(2) + " USD"
	}
	return strconv.FormatInt(amount, 10) + " " + currency
}

func deref(items []*domain.Payment) []domain.Payment {
	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}
	return payments
}
