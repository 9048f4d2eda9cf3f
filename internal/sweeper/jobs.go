package sweeper

import (
	"context"
	"errors"
	"time"

	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	eventservice "github.com/modoocon/modoocon/internal/event/service"
	identitydomain "github.com/modoocon/modoocon/internal/identity/domain"
	"github.com/modoocon/modoocon/internal/mailer"
	obsmetrics "github.com/modoocon/modoocon/internal/observability/metrics"
	settingsdomain "github.com/modoocon/modoocon/internal/settings/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// warnInactiveJob mails users approaching the retention deadline and marks
// them warned. Claimed rows are flagged inside the transaction; the mail goes
// out after commit so a send failure never rolls the claim back.
func (s *Sweeper) warnInactiveJob(ctx context.Context, policy settingsdomain.AccountSettings) error {
	now := s.clock.Now()
	deleteCutoff := now.AddDate(-policy.RetentionYears, 0, 0)
	warnCutoff := deleteCutoff.AddDate(0, 0, policy.WarningDays)

	var jobErr error
	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		var claimed []identitydomain.User
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var users []identitydomain.User
			err := tx.WithContext(ctx).Raw(
				`SELECT id, email, name, locale, last_login_at FROM users
				 WHERE last_login_at IS NOT NULL
				   AND last_login_at < ?
				   AND deletion_warning_sent = ? LIMIT ?`+s.skipLockedSuffix(),
				warnCutoff, false, s.cfg.BatchSize,
			).Scan(&users).Error
			if err != nil {
				return err
			}
			for _, user := range users {
				err := tx.WithContext(ctx).Exec(
					`UPDATE users SET deletion_warning_sent = ?, updated_at = ? WHERE id = ?`,
					true, now, user.ID,
				).Error
				if err != nil {
					return err
				}
			}
			claimed = users
			return nil
		})
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if len(claimed) == 0 {
			return jobErr
		}

		obsmetrics.Sweeper().AddBatchProcessed("warn_inactive", "users", len(claimed))
		for _, user := range claimed {
			s.sendDeletionWarning(ctx, user, policy.RetentionYears)
		}
		if len(claimed) < s.cfg.BatchSize {
			return jobErr
		}
	}
}

func (s *Sweeper) sendDeletionWarning(ctx context.Context, user identitydomain.User, retentionYears int) {
	tmpl, ok := eventservice.DefaultTemplate(eventdomain.TemplateDeletionWarning)
	if !ok {
		return
	}

	deadline := s.clock.Now()
	if user.LastLoginAt != nil {
		deadline = user.LastLoginAt.AddDate(retentionYears, 0, 0)
	}
	vars := map[string]string{
		"user_name":     user.Name,
		"deadline_date": deadline.Format("2006-01-02"),
	}
	msg := mailer.Message{
		To:      user.Email,
		Subject: mailer.Render(tmpl.Subject, vars),
		Body:    mailer.Render(tmpl.Body, vars),
		Kind:    tmpl.Kind,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("deletion warning send failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}
}

// eraseInactiveJob removes users past the retention window. Their attendees
// become tombstones carrying the email snapshot and their payments are
// detached; completed ledger rows stay.
func (s *Sweeper) eraseInactiveJob(ctx context.Context, policy settingsdomain.AccountSettings) error {
	now := s.clock.Now()
	deleteCutoff := now.AddDate(-policy.RetentionYears, 0, 0)

	var jobErr error
	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		var erased int
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var users []identitydomain.User
			err := tx.WithContext(ctx).Raw(
				`SELECT id, email FROM users
				 WHERE last_login_at IS NOT NULL
				   AND last_login_at < ?
				   AND deletion_warning_sent = ? LIMIT ?`+s.skipLockedSuffix(),
				deleteCutoff, true, s.cfg.BatchSize,
			).Scan(&users).Error
			if err != nil {
				return err
			}

			for _, user := range users {
				if err := s.eraseUser(ctx, tx, user, now); err != nil {
					return err
				}
			}
			erased = len(users)
			return nil
		})
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if erased == 0 {
			return jobErr
		}

		obsmetrics.Sweeper().AddBatchProcessed("erase_inactive", "users", erased)
		if erased < s.cfg.BatchSize {
			return jobErr
		}
	}
}

func (s *Sweeper) eraseUser(ctx context.Context, tx *gorm.DB, user identitydomain.User, now time.Time) error {
	err := tx.WithContext(ctx).Exec(
		`UPDATE attendees SET user_id = NULL, user_deleted_at = ?, user_email = ?, updated_at = ? WHERE user_id = ?`,
		now, user.Email, now, user.ID,
	).Error
	if err != nil {
		return err
	}

	err = tx.WithContext(ctx).Exec(
		`UPDATE payments SET user_id = NULL, updated_at = ? WHERE user_id = ?`,
		now, user.ID,
	).Error
	if err != nil {
		return err
	}

	// Abstracts and votes are authored content, not ledger; erase them with
	// the account.
	err = tx.WithContext(ctx).Exec(
		`DELETE FROM abstract_votes WHERE reviewer_id = ?
		 OR abstract_id IN (SELECT id FROM abstracts WHERE user_id = ?)`,
		user.ID, user.ID,
	).Error
	if err != nil {
		return err
	}
	err = tx.WithContext(ctx).Exec(
		`DELETE FROM abstracts WHERE user_id = ?`, user.ID,
	).Error
	if err != nil {
		return err
	}

	err = tx.WithContext(ctx).Exec(
		`DELETE FROM event_admins WHERE user_id = ?`, user.ID,
	).Error
	if err != nil {
		return err
	}

	s.log.Info("account erased", zap.String("user_id", user.ID.String()))
	return tx.WithContext(ctx).Exec(
		`DELETE FROM users WHERE id = ?`, user.ID,
	).Error
}

// purgePaymentsJob hard-deletes cancelled and pending rows whose attendee is
// gone once they age past the retention window. Completed rows are the
// ledger and are never purged.
func (s *Sweeper) purgePaymentsJob(ctx context.Context, policy settingsdomain.AccountSettings) error {
	cutoff := s.clock.Now().AddDate(-policy.RetentionYears, 0, 0)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result := s.db.WithContext(ctx).Exec(
			`DELETE FROM payments WHERE id IN (
			   SELECT p.id FROM payments p
			   WHERE p.status IN (?, ?)
			     AND p.created_at < ?
			     AND (p.attendee_id IS NULL OR NOT EXISTS (
			       SELECT 1 FROM attendees a WHERE a.id = p.attendee_id))
			   LIMIT ?)`,
			"cancelled", "pending", cutoff, s.cfg.BatchSize,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		obsmetrics.Sweeper().AddBatchProcessed("purge_payments", "payments", int(result.RowsAffected))
		if int(result.RowsAffected) < s.cfg.BatchSize {
			return nil
		}
	}
}

// skipLockedSuffix keeps concurrent sweepers off the same batch on postgres.
// sqlite has no row locks; single-writer semantics already cover it there.
func (s *Sweeper) skipLockedSuffix() string {
	if s.db.Dialector.Name() == "postgres" {
		return " FOR UPDATE SKIP LOCKED"
	}
	return ""
}
