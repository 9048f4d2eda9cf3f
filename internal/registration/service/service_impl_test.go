package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/modoocon/modoocon/internal/clock"
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
	paymentdomain "github.com/modoocon/modoocon/internal/payment/domain"
	"github.com/modoocon/modoocon/internal/registration/domain"
	"github.com/modoocon/modoocon/internal/registration/repository"
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

type testEnv struct {
	db       *gorm.DB
	genID    *snowflake.Node
	clock    *clock.FakeClock
	mailer   *captureDispatcher
	svc      domain.Service
	events   eventdomain.Service
	users    identitydomain.Service
	eventsRp eventdomain.Repository
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
		&domain.Attendee{},
		&domain.CustomAnswer{},
		&paymentdomain.Payment{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_attendees_event_user ON attendees(event_id, user_id) WHERE user_id IS NOT NULL`,
	).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC))
	log := zap.NewNop()
	dispatcher := &captureDispatcher{}

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
	svc := New(Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         repository.Provide(),
		Events:       eventRepo,
		EventService: eventSvc,
		Users:        identitySvc,
		Institutions: institutionrepository.Provide(),
		Mailer:       dispatcher,
	})

	return &testEnv{
		db:       db,
		genID:    node,
		clock:    clk,
		mailer:   dispatcher,
		svc:      svc,
		events:   eventSvc,
		users:    identitySvc,
		eventsRp: eventRepo,
	}
}

func (e *testEnv) newUser(t *testing.T, email string) identitydomain.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), identitydomain.CreateUserRequest{
		Email: email,
		Name:  "Test User",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) newEvent(t *testing.T, mutate func(*eventdomain.CreateEventRequest)) eventdomain.Event {
	t.Helper()
	now := e.clock.Now()
	req := eventdomain.CreateEventRequest{
		Name:                 "Spring Conference " + t.Name(),
		StartsAt:             now.AddDate(0, 1, 0),
		EndsAt:               now.AddDate(0, 1, 2),
		RegistrationOpensAt:  now.AddDate(0, 0, -7),
		RegistrationClosesAt: now.AddDate(0, 0, 7),
		FeeAmount:            50000,
	}
	if mutate != nil {
		mutate(&req)
	}
	event, err := e.events.Create(context.Background(), req)
	require.NoError(t, err)
	event, err = e.events.SetPublished(context.Background(), event.ID.String(), true)
	require.NoError(t, err)
	return event
}

func TestRegisterCreatesAttendeeAndConfirmationMail(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, nil)
	user := env.newUser(t, "alice@example.com")

	reg, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, event.ID, reg.Attendee.EventID)
	require.NotNil(t, reg.Attendee.UserID)
	assert.Equal(t, user.ID, *reg.Attendee.UserID)

	// HHMMSS of the registration clock plus 8 random lower-case alphanumerics.
	assert.Regexp(t, regexp.MustCompile(`^103000[a-z0-9]{8}$`), reg.Attendee.OrderID)

	sent := env.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, eventdomain.TemplateRegistrationConfirmed, sent[0].Kind)
	assert.Contains(t, sent[0].Body, reg.Attendee.OrderID)
}

func TestRegisterUnpublishedEventIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, nil)
	_, err := env.events.SetPublished(context.Background(), event.ID.String(), false)
	require.NoError(t, err)
	user := env.newUser(t, "bob@example.com")

	_, err = env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterOutsideWindow(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, nil)
	user := env.newUser(t, "carol@example.com")

	env.clock.Advance(8 * 24 * time.Hour)
	_, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)
}

func TestRegisterInvitationCodeMatchesCaseInsensitively(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, func(req *eventdomain.CreateEventRequest) {
		req.InvitationOnly = true
		req.InvitationCode = "vip2026"
	})
	user := env.newUser(t, "dave@example.com")

	_, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID:        event.ID.String(),
		UserID:         user.ID.String(),
		InvitationCode: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInvitationCode)

	_, err = env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID:        event.ID.String(),
		UserID:         user.ID.String(),
		InvitationCode: "Vip2026",
	})
	assert.NoError(t, err)
}

func TestRegisterCapacityFull(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, func(req *eventdomain.CreateEventRequest) {
		req.Capacity = 1
	})
	first := env.newUser(t, "first@example.com")
	second := env.newUser(t, "second@example.com")

	_, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  first.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  second.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrEventFull)
}

func TestRegisterTwiceIsAlreadyRegistered(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, nil)
	user := env.newUser(t, "eve@example.com")

	_, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestRegisterRequiredQuestionAndCheckboxRendering(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, nil)
	user := env.newUser(t, "frank@example.com")

	question, err := env.events.UpsertQuestion(context.Background(), eventdomain.UpsertQuestionRequest{
		EventID:  event.ID.String(),
		Text:     "Dietary requirements",
		Kind:     eventdomain.QuestionKindCheckbox,
		Required: true,
		Options:  []string{"vegetarian", "halal"},
	})
	require.NoError(t, err)

	_, err = env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	var missing *domain.MissingAnswerError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Dietary requirements", missing.Question)

	reg, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
		Answers: []domain.Answer{
			{
				QuestionID: question.ID.String(),
				Selections: []domain.Selection{
					{Option: "vegetarian", Value: "yes"},
					{Option: "halal", Value: "no"},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, reg.Answers, 1)
	assert.Equal(t, "Dietary requirements", reg.Answers[0].QuestionText)
	assert.Equal(t, "- vegetarian: yes\n- halal: no", reg.Answers[0].Answer)
}

func TestRegisterInstitutionSnapshot(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, func(req *eventdomain.CreateEventRequest) {
		req.RequiresInstitution = true
	})
	user := env.newUser(t, "grace@example.com")

	_, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrMissingInstitute)

	_, err = env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID:       event.ID.String(),
		UserID:        user.ID.String(),
		InstitutionID: env.genID.Generate().String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInstitution)

	institutionSvc := institutionservice.New(institutionservice.Params{
		DB:    env.db,
		Log:   zap.NewNop(),
		GenID: env.genID,
		Clock: env.clock,
		Repo:  institutionrepository.Provide(),
	})
	institution, err := institutionSvc.Create(context.Background(), institutiondomain.CreateInstitutionRequest{
		NameKO: "모두대학교",
		NameEN: "Modoo University",
	})
	require.NoError(t, err)

	reg, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID:       event.ID.String(),
		UserID:        user.ID.String(),
		InstitutionID: institution.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "모두대학교", reg.Attendee.InstituteNameKO)
	assert.Equal(t, "Modoo University", reg.Attendee.InstituteNameEN)
}

func TestCancelBlockedByCompletedPayment(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, nil)
	user := env.newUser(t, "henry@example.com")

	reg, err := env.svc.Register(context.Background(), domain.RegisterRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	require.NoError(t, err)

	attendeeID := reg.Attendee.ID
	userID := user.ID
	require.NoError(t, env.db.Create(&paymentdomain.Payment{
		ID:         env.genID.Generate(),
		AttendeeID: &attendeeID,
		EventID:    event.ID,
		UserID:     &userID,
		Method:     paymentdomain.MethodCard,
		Status:     paymentdomain.StatusCompleted,
		Amount:     50000,
		Currency:   "KRW",
		OrderID:    reg.Attendee.OrderID,
		EventName:  event.Name,
		PayerEmail: user.Email,
		PayerName:  user.Name,
	}).Error)

	err = env.svc.Cancel(context.Background(), domain.CancelRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrPaymentRequired)

	require.NoError(t, env.db.Exec(`UPDATE payments SET status = ?`, paymentdomain.StatusCancelled).Error)

	err = env.svc.Cancel(context.Background(), domain.CancelRequest{
		EventID: event.ID.String(),
		UserID:  user.ID.String(),
	})
	require.NoError(t, err)

	_, err = env.svc.FindAttendee(context.Background(), event.ID.String(), user.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
