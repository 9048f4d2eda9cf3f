package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/settings/domain"
	"github.com/modoocon/modoocon/internal/settings/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.AccountSettings{}))

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestGetReturnsDefaultsWithoutRow(t *testing.T) {
	svc := newTestService(t)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRetentionYears, settings.RetentionYears)
	assert.Equal(t, domain.DefaultWarningDays, settings.WarningDays)
}

func TestSavePersistsSingletonRow(t *testing.T) {
	svc := newTestService(t)

	saved, err := svc.Save(context.Background(), domain.SaveRequest{
		RetentionYears: 3,
		WarningDays:    14,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, saved.RetentionYears)
	assert.Equal(t, 14, saved.WarningDays)

	// A second save replaces the same row.
	_, err = svc.Save(context.Background(), domain.SaveRequest{
		RetentionYears: 5,
		WarningDays:    21,
	})
	require.NoError(t, err)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, settings.RetentionYears)
	assert.Equal(t, 21, settings.WarningDays)
}

func TestSaveClampsBelowFloorValues(t *testing.T) {
	svc := newTestService(t)

	saved, err := svc.Save(context.Background(), domain.SaveRequest{
		RetentionYears: 0,
		WarningDays:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MinRetentionYears, saved.RetentionYears)
	assert.Equal(t, domain.MinWarningDays, saved.WarningDays)
}
