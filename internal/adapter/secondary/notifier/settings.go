package notifier

import (
	"context"
	"io"
	"sync"
	"time"

	"adhan-manager/internal/domain"
	"adhan-manager/internal/format"
)

// SettingsNotifier prints every prayer and, when a notify command is
// configured, runs it. It reads the settings on each call so a reloaded
// config takes effect without rebuilding the notifier.
type SettingsNotifier struct {
	w        io.Writer
	settings func() domain.Settings

	mu      sync.Mutex
	cmdLine string
	cmd     *CommandNotifier
}

// NewSettingsNotifier creates a notifier that follows settings().
func NewSettingsNotifier(w io.Writer, settings func() domain.Settings) *SettingsNotifier {
	return &SettingsNotifier{w: w, settings: settings}
}

// Notify implements domain.AdhanNotifier.
func (s *SettingsNotifier) Notify(ctx context.Context, prayer domain.Prayer, at time.Time) error {
	current := s.settings()
	f, err := format.FromSettings(current)
	if err != nil {
		return err
	}
	targets := Multi{NewConsoleNotifier(s.w, f)}

	cmd, err := s.command(current.NotifyCommand)
	if err != nil {
		return err
	}
	if cmd != nil && prayer != domain.PrayerNone {
		targets = append(targets, cmd)
	}
	return targets.Notify(ctx, prayer, at)
}

func (s *SettingsNotifier) command(line string) (*CommandNotifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line == s.cmdLine {
		return s.cmd, nil
	}
	if line == "" {
		s.cmdLine, s.cmd = "", nil
		return nil, nil
	}
	cmd, err := NewCommandNotifier(line, DefaultMinGap)
	if err != nil {
		// not cached, so every notification reports the broken command
		s.cmdLine, s.cmd = "", nil
		return nil, err
	}
	s.cmdLine, s.cmd = line, cmd
	return cmd, nil
}
