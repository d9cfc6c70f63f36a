package loop

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"leafgame/internal/ledger/tuning"
)

const scheduledTimeout = 10 * time.Second

// Schedule registers the periodic save and the quota reset on c.
func (l *Loop) Schedule(c *cron.Cron, t tuning.Tuning) error {
	if t.SaveSchedule != "" {
		if _, err := c.AddFunc(t.SaveSchedule, l.scheduledSave); err != nil {
			return err
		}
	}
	if t.QuotaResetSchedule != "" {
		if _, err := c.AddFunc(t.QuotaResetSchedule, l.scheduledQuotaReset); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) scheduledSave() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledTimeout)
	defer cancel()
	h, err := l.RequestSave(ctx)
	if err != nil {
		l.log.Printf("scheduled save: %v", err)
		return
	}
	l.log.Debugf("scheduled save: %d users, %d groups", h.Users, h.Groups)
}

func (l *Loop) scheduledQuotaReset() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledTimeout)
	defer cancel()
	if _, err := l.RequestQuotaReset(ctx); err != nil {
		l.log.Printf("scheduled quota reset: %v", err)
	}
}
