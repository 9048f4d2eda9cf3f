package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type authEnv struct {
	db     *gorm.DB
	clock  *clock.FakeClock
	server *Server
	users  identitydomain.Service
	events eventdomain.Service
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&institutiondomain.Institution{},
		&identitydomain.User{},
		&eventdomain.Event{},
		&eventdomain.CustomQuestion{},
		&eventdomain.EmailTemplate{},
		&eventdomain.EventAdmin{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()

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
	eventSvc := eventservice.New(eventservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  eventrepository.Provide(),
		Users: identitySvc,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	server := &Server{
		engine: engine,
		cfg:    config.Config{AuthJWTSecret: testJWTSecret},
		log:    log,
		users:  identitySvc,
		events: eventSvc,
	}

	engine.GET("/whoami", server.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": currentUserID(c)})
	})
	engine.GET("/staff-only", server.AuthRequired(), server.RequireStaff(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})
	engine.GET("/events/:id/manage", server.AuthRequired(), server.RequireEventStaff("id"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})

	return &authEnv{db: db, clock: clk, server: server, users: identitySvc, events: eventSvc}
}

func (e *authEnv) newUser(t *testing.T, email string, staff bool) identitydomain.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), identitydomain.CreateUserRequest{
		Email: email,
		Name:  "Auth User",
	})
	require.NoError(t, err)
	if staff {
		require.NoError(t, e.db.Exec(`UPDATE users SET is_staff = ? WHERE id = ?`, true, user.ID).Error)
	}
	return user
}

func signToken(t *testing.T, method jwt.SigningMethod, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func get(t *testing.T, engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	env := newAuthEnv(t)
	user := env.newUser(t, "alice@example.com", false)

	token := signToken(t, jwt.SigningMethodHS256, user.ID.String())
	rec := get(t, env.server.Engine(), "/whoami", token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID.String())

	// The request marks the account active.
	var refreshed identitydomain.User
	require.NoError(t, env.db.Take(&refreshed, "id = ?", user.ID).Error)
	require.NotNil(t, refreshed.LastLoginAt)
}

func TestAuthRequiredRejections(t *testing.T) {
	env := newAuthEnv(t)
	user := env.newUser(t, "bob@example.com", false)

	cases := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
		{name: "unknown subject", token: signToken(t, jwt.SigningMethodHS256, "123456789")},
		{name: "wrong algorithm", token: signToken(t, jwt.SigningMethodHS512, user.ID.String())},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, env.server.Engine(), "/whoami", tc.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"unauthorized"`)
		})
	}
}

func TestRequireStaff(t *testing.T) {
	env := newAuthEnv(t)
	staff := env.newUser(t, "staff@example.com", true)
	regular := env.newUser(t, "regular@example.com", false)

	rec := get(t, env.server.Engine(), "/staff-only", signToken(t, jwt.SigningMethodHS256, staff.ID.String()))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, env.server.Engine(), "/staff-only", signToken(t, jwt.SigningMethodHS256, regular.ID.String()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"forbidden"`)
}

func TestRequireEventStaffHonorsGrant(t *testing.T) {
	env := newAuthEnv(t)
	staff := env.newUser(t, "root@example.com", true)
	admin := env.newUser(t, "admin@example.com", false)
	outsider := env.newUser(t, "outsider@example.com", false)

	now := env.clock.Now()
	event, err := env.events.Create(context.Background(), eventdomain.CreateEventRequest{
		Name:                 "Managed Event",
		StartsAt:             now.AddDate(0, 1, 0),
		EndsAt:               now.AddDate(0, 1, 1),
		RegistrationOpensAt:  now,
		RegistrationClosesAt: now.AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	require.NoError(t, env.events.GrantAdmin(context.Background(), event.ID.String(), admin.ID.String()))

	path := "/events/" + event.ID.String() + "/manage"

	rec := get(t, env.server.Engine(), path, signToken(t, jwt.SigningMethodHS256, staff.ID.String()))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, env.server.Engine(), path, signToken(t, jwt.SigningMethodHS256, admin.ID.String()))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, env.server.Engine(), path, signToken(t, jwt.SigningMethodHS256, outsider.ID.String()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
