package sessionstore

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically evicts expired sessions from a Store on a cron
// schedule, instead of a bespoke ticker goroutine — grounded on the rest
// of the example pack's preference for robfig/cron over raw time.Ticker
// for anything resembling a scheduled maintenance task.
type Sweeper struct {
	cron *cron.Cron
}

// StartSweeper schedules CleanupExpired on the given cron spec (e.g.
// "@every 1m") and starts running it in the background. Call Stop to halt
// it during shutdown.
func StartSweeper(store *Store, spec string, log *slog.Logger) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n := store.CleanupExpired()
		if n > 0 && log != nil {
			log.Info("swept expired sessions", "count", n)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return &Sweeper{cron: c}, nil
}

// Stop halts the sweeper, blocking until any in-flight sweep completes.
func (s *Sweeper) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}
