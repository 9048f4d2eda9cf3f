package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/modoocon/modoocon/internal/abstract/domain"
	"github.com/modoocon/modoocon/internal/abstract/repository"
	"github.com/modoocon/modoocon/internal/clock"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	eventrepository "github.com/modoocon/modoocon/internal/event/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	genID  *snowflake.Node
	clock  *clock.FakeClock
	svc    domain.Service
	events eventdomain.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&eventdomain.Event{},
		&domain.Abstract{},
		&domain.AbstractVote{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_abstracts_event_user ON abstracts(event_id, user_id)`,
	).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))

	eventRepo := eventrepository.Provide()
	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
		Repo:   repository.Provide(),
		Events: eventRepo,
	})

	return &testEnv{db: db, genID: node, clock: clk, svc: svc, events: eventRepo}
}

func (e *testEnv) newEvent(t *testing.T, maxVotes int) eventdomain.Event {
	t.Helper()
	now := e.clock.Now()
	event := eventdomain.Event{
		ID:                   e.genID.Generate(),
		Slug:                 fmt.Sprintf("event-%d", e.genID.Generate()),
		Name:                 "CFP Conference",
		StartsAt:             now.AddDate(0, 1, 0),
		EndsAt:               now.AddDate(0, 1, 2),
		RegistrationOpensAt:  now.AddDate(0, 0, -7),
		RegistrationClosesAt: now.AddDate(0, 0, 7),
		FeeCurrency:          "KRW",
		MaxVotes:             maxVotes,
		Published:            true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	require.NoError(t, e.events.Insert(context.Background(), e.db, &event))
	return event
}

func TestSubmitOncePerEvent(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, 0)
	userID := env.genID.Generate().String()

	abstract, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  userID,
		Title:   "  Generics in practice  ",
		Body:    "A field report.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Generics in practice", abstract.Title)
	assert.Equal(t, domain.StatusSubmitted, abstract.Status)

	_, err = env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  userID,
		Title:   "Second try",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)

	mine, err := env.svc.MyAbstract(context.Background(), event.ID.String(), userID)
	require.NoError(t, err)
	assert.Equal(t, abstract.ID, mine.ID)
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, 0)
	userID := env.genID.Generate().String()

	_, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  userID,
		Title:   "   ",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	env.clock.Advance(8 * 24 * time.Hour)
	_, err = env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  userID,
		Title:   "Too late",
	})
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)
}

func TestWithdrawOnlyByAuthor(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, 0)
	author := env.genID.Generate().String()
	stranger := env.genID.Generate().String()

	abstract, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  author,
		Title:   "Mine",
	})
	require.NoError(t, err)

	err = env.svc.Withdraw(context.Background(), abstract.ID.String(), stranger)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, env.svc.Withdraw(context.Background(), abstract.ID.String(), author))
	_, err = env.svc.MyAbstract(context.Background(), event.ID.String(), author)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecideValidatesStatus(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, 0)

	abstract, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  env.genID.Generate().String(),
		Title:   "Pending talk",
	})
	require.NoError(t, err)

	_, err = env.svc.Decide(context.Background(), domain.DecideRequest{
		AbstractID: abstract.ID.String(),
		Status:     "maybe",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	decided, err := env.svc.Decide(context.Background(), domain.DecideRequest{
		AbstractID: abstract.ID.String(),
		Status:     domain.StatusAccepted,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, decided.Status)
}

func TestVoteBudgetAndIdempotency(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, 2)
	reviewer := env.genID.Generate().String()

	var abstracts []domain.Abstract
	for i := 0; i < 3; i++ {
		abstract, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
			EventID: event.ID.String(),
			UserID:  env.genID.Generate().String(),
			Title:   fmt.Sprintf("Talk %d", i),
		})
		require.NoError(t, err)
		abstracts = append(abstracts, abstract)
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, env.svc.Vote(context.Background(), domain.VoteRequest{
			AbstractID: abstracts[i].ID.String(),
			ReviewerID: reviewer,
		}))
	}

	// Re-voting an already-voted abstract does not consume budget.
	require.NoError(t, env.svc.Vote(context.Background(), domain.VoteRequest{
		AbstractID: abstracts[0].ID.String(),
		ReviewerID: reviewer,
	}))

	err := env.svc.Vote(context.Background(), domain.VoteRequest{
		AbstractID: abstracts[2].ID.String(),
		ReviewerID: reviewer,
	})
	assert.ErrorIs(t, err, domain.ErrVoteBudgetSpent)

	// Unvoting frees budget for another vote.
	require.NoError(t, env.svc.Unvote(context.Background(), domain.VoteRequest{
		AbstractID: abstracts[0].ID.String(),
		ReviewerID: reviewer,
	}))
	require.NoError(t, env.svc.Vote(context.Background(), domain.VoteRequest{
		AbstractID: abstracts[2].ID.String(),
		ReviewerID: reviewer,
	}))
}

func TestTallyCountsVotesPerAbstract(t *testing.T) {
	env := newTestEnv(t)
	event := env.newEvent(t, 0)

	first, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  env.genID.Generate().String(),
		Title:   "Popular talk",
	})
	require.NoError(t, err)
	second, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: event.ID.String(),
		UserID:  env.genID.Generate().String(),
		Title:   "Quiet talk",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, env.svc.Vote(context.Background(), domain.VoteRequest{
			AbstractID: first.ID.String(),
			ReviewerID: env.genID.Generate().String(),
		}))
	}

	items, err := env.svc.Tally(context.Background(), event.ID.String())
	require.NoError(t, err)
	require.Len(t, items, 2)

	votesByID := map[snowflake.ID]int64{}
	for _, item := range items {
		votesByID[item.Abstract.ID] = item.Votes
	}
	assert.Equal(t, int64(3), votesByID[first.ID])
	assert.Equal(t, int64(0), votesByID[second.ID])
}

// TestVoteBudgetIsPerEvent ensures votes spent in one event do not reduce the
// reviewer's budget in another.
func TestVoteBudgetIsPerEvent(t *testing.T) {
	env := newTestEnv(t)
	eventA := env.newEvent(t, 1)
	eventB := env.newEvent(t, 1)
	reviewer := env.genID.Generate().String()

	talkA, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: eventA.ID.String(),
		UserID:  env.genID.Generate().String(),
		Title:   "Talk A",
	})
	require.NoError(t, err)
	talkB, err := env.svc.Submit(context.Background(), domain.SubmitRequest{
		EventID: eventB.ID.String(),
		UserID:  env.genID.Generate().String(),
		Title:   "Talk B",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Vote(context.Background(), domain.VoteRequest{
		AbstractID: talkA.ID.String(),
		ReviewerID: reviewer,
	}))
	require.NoError(t, env.svc.Vote(context.Background(), domain.VoteRequest{
		AbstractID: talkB.ID.String(),
		ReviewerID: reviewer,
	}))
}
