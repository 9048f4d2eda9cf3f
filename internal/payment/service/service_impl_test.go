package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/config"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	eventrepository "github.com/modoocon/modoocon/internal/event/repository"
	eventservice "github.com/modoocon/modoocon/internal/event/service"
	identitydomain "github.com/modoocon/modoocon/internal/identity/domain"
	identityrepository "github.com/modoocon/modoocon/internal/identity/repository"
	identityservice "github.com/modoocon/modoocon/internal/identity/service"
	institutiondomain "github.com/modoocon/modoocon/internal/institution/domain"
	institutionrepository "github.com/modoocon/modoocon/internal/institution/repository"
	institutionservice "github.com/modoocon/modoocon/internal/institution/service"
	"github.com/modoocon/modoocon/internal/mailer"
	"github.com/modoocon/modoocon/internal/payment/domain"
	"github.com/modoocon/modoocon/internal/payment/gateway"
	"github.com/modoocon/modoocon/internal/payment/gateway/card"
	"github.com/modoocon/modoocon/internal/payment/gateway/paypal"
	"github.com/modoocon/modoocon/internal/payment/lock"
	"github.com/modoocon/modoocon/internal/payment/repository"
	registrationdomain "github.com/modoocon/modoocon/internal/registration/domain"
	registrationrepository "github.com/modoocon/modoocon/internal/registration/repository"
	registrationservice "github.com/modoocon/modoocon/internal/registration/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type captureDispatcher struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (d *captureDispatcher) Send(_ context.Context, msg mailer.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	return nil
}

func (d *captureDispatcher) sent() []mailer.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]mailer.Message(nil), d.messages...)
}

type fixedExchange struct{}

func (fixedExchange) KRWToUSD(_ context.Context, amountKRW int64) (decimal.Decimal, error) {
	// 1300 KRW per USD.
	return decimal.NewFromInt(amountKRW).Div(decimal.NewFromInt(1300)), nil
}

// cardStub mimics the card gateway: confirm echoes the requested amount and
// records cancel calls.
type cardStub struct {
	mu         sync.Mutex
	cancelled  []string
	confirmErr *gateway.ProviderError
}

func (s *cardStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/payments/confirm":
			if s.confirmErr != nil {
				w.WriteHeader(s.confirmErr.Status)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    s.confirmErr.Code,
					"message": s.confirmErr.Message,
				})
				return
			}
			var payload struct {
				PaymentKey string `json:"paymentKey"`
				OrderID    string `json:"orderId"`
				Amount     int64  `json:"amount"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"paymentKey":  payload.PaymentKey,
				"orderId":     payload.OrderID,
				"totalAmount": payload.Amount,
				"currency":    "KRW",
				"approvedAt":  time.Now().Format(time.RFC3339),
			})
		case r.Method == http.MethodPost:
			s.mu.Lock()
			s.cancelled = append(s.cancelled, r.URL.Path)
			s.mu.Unlock()
			_, _ = w.Write([]byte(`{}`))
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"receipt": map[string]string{"url": "https://receipts.example/r"},
			})
		}
	}
}

type testEnv struct {
	db            *gorm.DB
	genID         *snowflake.Node
	clock         *clock.FakeClock
	mailer        *captureDispatcher
	cardStub      *cardStub
	svc           domain.Service
	events        eventdomain.Service
	users         identitydomain.Service
	registrations registrationdomain.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&institutiondomain.Institution{},
		&identitydomain.User{},
		&eventdomain.Event{},
		&eventdomain.CustomQuestion{},
		&eventdomain.EmailTemplate{},
		&eventdomain.EventAdmin{},
		&registrationdomain.Attendee{},
		&registrationdomain.CustomAnswer{},
		&domain.Payment{},
		&domain.ManualTransactionDetail{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_completed_attendee ON payments(attendee_id) WHERE status = 'completed' AND attendee_id IS NOT NULL`,
	).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC))
	log := zap.NewNop()
	dispatcher := &captureDispatcher{}

	stub := &cardStub{}
	cardSrv := httptest.NewServer(stub.handler(t))
	t.Cleanup(cardSrv.Close)

	paypalSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
		case "/v2/checkout/orders":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "ORDER-1", "status": "CREATED"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "ORDER-1",
				"status": "COMPLETED",
				"purchase_units": []map[string]any{{
					"payments": map[string]any{
						"captures": []map[string]any{{
							"id":     "CAPTURE-1",
							"status": "COMPLETED",
							"amount": map[string]string{"currency_code": "USD", "value": "38.46"},
						}},
					},
				}},
			})
		}
	}))
	t.Cleanup(paypalSrv.Close)

	cfg := config.Config{
		Card:   config.CardGatewayConfig{BaseURL: cardSrv.URL, SecretKey: "test_sk"},
		PayPal: config.PayPalConfig{BaseURL: paypalSrv.URL, ClientID: "id", ClientSecret: "secret"},
	}

	institutionSvc := institutionservice.New(institutionservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  institutionrepository.Provide(),
	})
	identitySvc := identityservice.New(identityservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         identityrepository.Provide(),
		Institutions: institutionSvc,
	})
	eventRepo := eventrepository.Provide()
	eventSvc := eventservice.New(eventservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  eventRepo,
		Users: identitySvc,
	})
	registrationSvc := registrationservice.New(registrationservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         registrationrepository.Provide(),
		Events:       eventRepo,
		EventService: eventSvc,
		Users:        identitySvc,
		Institutions: institutionrepository.Provide(),
		Mailer:       &captureDispatcher{},
	})
	svc := New(Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Clock:         clk,
		Repo:          repository.Provide(),
		Locker:        lock.NewMemoryLocker(),
		Card:          card.New(cfg),
		PayPal:        paypal.New(cfg),
		Exchange:      fixedExchange{},
		Events:        eventSvc,
		Users:         identitySvc,
		Registrations: registrationSvc,
		Mailer:        dispatcher,
	})

	return &testEnv{
		db:            db,
		genID:         node,
		clock:         clk,
		mailer:        dispatcher,
		cardStub:      stub,
		svc:           svc,
		events:        eventSvc,
		users:         identitySvc,
		registrations: registrationSvc,
	}
}

func (e *testEnv) registeredAttendee(t *testing.T) (eventdomain.Event, identitydomain.User, registrationdomain.Attendee) {
	t.Helper()
	now := e.clock.Now()
	event, err := e.events.Create(context.Background(), eventdomain.CreateEventRequest{
		Name:                 "Autumn Conference " + t.Name(),
		StartsAt:             now.AddDate(0, 1, 0),
		EndsAt:               now.AddDate(0, 1, 2),
		RegistrationOpensAt:  now.AddDate(0, 0, -7),
		RegistrationClosesAt: now.AddDate(0, 0, 7),
		FeeAmount:            50000,
	})
	require.NoError(t, err)
	event, err = e.events.SetPublished(context.Background(), event.ID.String(), true)
	require.NoError(t, err)

	user, err := e.users.Create(context.Background(), identitydomain.CreateUserRequest{
		Email: "payer@example.com",
		Name:  "Payer",
	})
	require.NoError(t, err)

	reg, err := e.registrations.Register(context.Background(), registrationdomain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	require.NoError(t, err)
	return event, user, reg.Attendee
}

func TestConfirmCardCompletesPaymentAndMailsReceipt(t *testing.T) {
	env := newTestEnv(t)
	event, user, attendee := env.registeredAttendee(t)

	payment, err := env.svc.ConfirmCard(context.Background(), domain.ConfirmCardRequest{
		UserID:     user.ID.String(),
		EventID:    event.ID.String(),
		PaymentKey: "pay_abc",
		Amount:     50000,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, payment.Status)
	assert.Equal(t, domain.MethodCard, payment.Method)
	assert.Equal(t, int64(50000), payment.Amount)
	assert.Equal(t, "KRW", payment.Currency)
	assert.Equal(t, "pay_abc", payment.ProviderPaymentID)
	assert.Equal(t, attendee.OrderID, payment.OrderID)
	assert.Equal(t, "payer@example.com", payment.PayerEmail)
	require.NotNil(t, payment.CompletedAt)

	sent := env.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "payer@example.com", sent[0].To)
	assert.Equal(t, eventdomain.TemplatePaymentReceipt, sent[0].Kind)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", sent[0].Attachments[0].ContentType)
	assert.NotEmpty(t, sent[0].Attachments[0].Data)

	paid, err := env.svc.HasCompleted(context.Background(), attendee.ID.String())
	require.NoError(t, err)
	assert.True(t, paid)
}

func TestConfirmCardRejectsWrongAmountBeforeGateway(t *testing.T) {
	env := newTestEnv(t)
	event, user, _ := env.registeredAttendee(t)

	_, err := env.svc.ConfirmCard(context.Background(), domain.ConfirmCardRequest{
		UserID:     user.ID.String(),
		EventID:    event.ID.String(),
		PaymentKey: "pay_abc",
		Amount:     100,
	})

	var mismatch *gateway.AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(50000), mismatch.Want)
	assert.Equal(t, int64(100), mismatch.Got)
}

func TestConfirmCardTwiceIsAlreadyPaid(t *testing.T) {
	env := newTestEnv(t)
	event, user, _ := env.registeredAttendee(t)

	_, err := env.svc.ConfirmCard(context.Background(), domain.ConfirmCardRequest{
		UserID:     user.ID.String(),
		EventID:    event.ID.String(),
		PaymentKey: "pay_abc",
		Amount:     50000,
	})
	require.NoError(t, err)

	_, err = env.svc.ConfirmCard(context.Background(), domain.ConfirmCardRequest{
		UserID:     user.ID.String(),
		EventID:    event.ID.String(),
		PaymentKey: "pay_def",
		Amount:     50000,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
}

func TestPayPalOrderAndCapture(t *testing.T) {
	env := newTestEnv(t)
	event, user, attendee := env.registeredAttendee(t)

	order, err := env.svc.CreatePayPalOrder(context.Background(), domain.CreatePayPalOrderRequest{
		UserID:  user.ID.String(),
		EventID: event.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.ProviderOrderID)
	assert.Equal(t, "38.46", order.USDValue)

	payment, err := env.svc.CapturePayPalOrder(context.Background(), domain.CapturePayPalOrderRequest{
		UserID:          user.ID.String(),
		EventID:         event.ID.String(),
		ProviderOrderID: order.ProviderOrderID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, payment.Status)
	assert.Equal(t, domain.MethodPayPal, payment.Method)
	assert.Equal(t, int64(3846), payment.Amount)
	assert.Equal(t, "USD", payment.Currency)
	assert.Equal(t, "CAPTURE-1", payment.ProviderPaymentID)
	assert.Equal(t, attendee.OrderID, payment.OrderID)
}

func TestRecordManualWritesDetailRow(t *testing.T) {
	env := newTestEnv(t)
	_, _, attendee := env.registeredAttendee(t)

	transferred := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	payment, err := env.svc.RecordManual(context.Background(), domain.RecordManualRequest{
		AttendeeID:    attendee.ID.String(),
		PayerName:     "Bank Payer",
		TransferredAt: transferred,
		Note:          "wire transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, payment.Status)
	assert.Equal(t, domain.MethodManual, payment.Method)
	assert.Equal(t, int64(50000), payment.Amount)

	var detail domain.ManualTransactionDetail
	require.NoError(t, env.db.Where("payment_id = ?", payment.ID).Take(&detail).Error)
	assert.Equal(t, "Bank Payer", detail.PayerName)
	assert.Equal(t, "wire transfer", detail.Note)
	assert.True(t, detail.TransferredAt.Equal(transferred))

	_, err = env.svc.RecordManual(context.Background(), domain.RecordManualRequest{
		AttendeeID: attendee.ID.String(),
		PayerName:  "Bank Payer",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
}

func TestCancelVoidsCompletedCardPayment(t *testing.T) {
	env := newTestEnv(t)
	event, user, _ := env.registeredAttendee(t)

	payment, err := env.svc.ConfirmCard(context.Background(), domain.ConfirmCardRequest{
		UserID:     user.ID.String(),
		EventID:    event.ID.String(),
		PaymentKey: "pay_abc",
		Amount:     50000,
	})
	require.NoError(t, err)

	cancelled, err := env.svc.Cancel(context.Background(), domain.CancelRequest{
		PaymentID: payment.ID.String(),
		Reason:    "attendee request",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	env.cardStub.mu.Lock()
	cancelledPaths := append([]string(nil), env.cardStub.cancelled...)
	env.cardStub.mu.Unlock()
	assert.Contains(t, cancelledPaths, "/v1/payments/pay_abc/cancel")

	// The row is kept, not deleted.
	kept, err := env.svc.GetByID(context.Background(), payment.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, kept.Status)
}

func TestCancelRequiresCompletedStatus(t *testing.T) {
	env := newTestEnv(t)
	event, user, attendee := env.registeredAttendee(t)

	attendeeID := attendee.ID
	userID := user.ID
	pending := domain.Payment{
		ID:         env.genID.Generate(),
		AttendeeID: &attendeeID,
		EventID:    event.ID,
		UserID:     &userID,
		Method:     domain.MethodCard,
		Status:     domain.StatusPending,
		Amount:     50000,
		Currency:   "KRW",
		OrderID:    attendee.OrderID,
		EventName:  event.Name,
		PayerEmail: user.Email,
		PayerName:  user.Name,
	}
	require.NoError(t, env.db.Create(&pending).Error)

	_, err := env.svc.Cancel(context.Background(), domain.CancelRequest{
		PaymentID: pending.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotCompleted)
}
