package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"recruitgate/pkg/utils"
)

// Sweeper expires overdue invitations. It must be safe to run repeatedly.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// StartCronJob schedules the invitation expiry sweep. A run that is still
// going when the next one is due makes the next one skip.
func StartCronJob(schedule string, sweeper Sweeper, timeout time.Duration) (*cron.Cron, error) {
	logger := cron.PrintfLogger(utils.Logger)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(schedule, func() {
		if err := RunSweep(sweeper, timeout); err != nil {
			utils.Logger.Errorf("Cron job failed to update expired invitations: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule invitation expiration job: %w", err)
	}

	c.Start()
	utils.Logger.Infof("Cron jobs started (invitation expiry on %q)", schedule)
	return c, nil
}

func RunSweep(sweeper Sweeper, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		utils.Logger.Infof("Sweep expired %d invitations", n)
	}
	return nil
}
