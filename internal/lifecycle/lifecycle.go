// Package lifecycle expires games that are finished or abandoned so a
// long-running server's registry does not grow without bound.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ajitpratap0/cinelink/internal/game"
	"github.com/ajitpratap0/cinelink/internal/metrics"
)

// Report summarizes the results of a lifecycle run.
type Report struct {
	Finished int `json:"finished"`
	Idle     int `json:"idle"`
	Kept     int `json:"kept"`
}

// Policy sets how long games are kept. A zero duration disables that rule.
type Policy struct {
	FinishedTTL time.Duration // retention after a game ends
	IdleTTL     time.Duration // retention of a running game without moves
}

// Manager handles game lifecycle operations.
type Manager struct {
	games  *game.Registry
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a new lifecycle manager.
func NewManager(games *game.Registry, policy Policy, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		games:  games,
		policy: policy,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps the registry once. With dryRun set, games are counted but
// left in place.
func (m *Manager) Run(ctx context.Context, dryRun bool) (*Report, error) {
	report := &Report{}
	now := m.now()

	for _, id := range m.games.IDs() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		g, err := m.games.Get(id)
		if err != nil {
			// Deleted concurrently.
			continue
		}
		over, updatedAt := g.Activity()
		age := now.Sub(updatedAt)

		var reason string
		switch {
		case over && m.policy.FinishedTTL > 0 && age > m.policy.FinishedTTL:
			reason = "finished"
		case !over && m.policy.IdleTTL > 0 && age > m.policy.IdleTTL:
			reason = "idle"
		default:
			report.Kept++
			continue
		}

		m.logger.Info("lifecycle: expiring game", "game_id", id, "reason", reason, "last_activity", updatedAt)
		if !dryRun {
			if err := m.games.Delete(id); err != nil && !errors.Is(err, game.ErrNotFound) {
				m.logger.Error("lifecycle: deleting game", "game_id", id, "error", err)
				continue
			}
			metrics.Inc(metrics.GamesExpired)
		}
		if reason == "finished" {
			report.Finished++
		} else {
			report.Idle++
		}
	}

	return report, nil
}

// Start sweeps every interval until ctx is done. It blocks; run it in its
// own goroutine.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := m.Run(ctx, false)
			if err != nil {
				if ctx.Err() == nil {
					m.logger.Error("lifecycle: sweep failed", "error", err)
				}
				continue
			}
			if report.Finished+report.Idle > 0 {
				m.logger.Info("lifecycle: sweep complete",
					"finished", report.Finished, "idle", report.Idle, "kept", report.Kept)
			}
		}
	}
}
