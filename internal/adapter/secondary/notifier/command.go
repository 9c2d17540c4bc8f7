package notifier

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
	"golang.org/x/time/rate"

	"adhan-manager/internal/domain"
)

// DefaultMinGap is the minimum spacing between two command runs.
const DefaultMinGap = 30 * time.Second

// CommandNotifier implements domain.AdhanNotifier by running an external
// command, e.g. an audio player with the adhan recording.
// This is a secondary adapter.
type CommandNotifier struct {
	args    []string
	limiter *rate.Limiter
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandNotifier parses a command line. The placeholders {prayer} and
// {time} are substituted in every argument before the command runs.
func NewCommandNotifier(command string, minGap time.Duration) (*CommandNotifier, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse notify command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("notify command is empty")
	}
	if minGap <= 0 {
		minGap = DefaultMinGap
	}
	return &CommandNotifier{
		args:    args,
		limiter: rate.NewLimiter(rate.Every(minGap), 1),
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}, nil
}

// Notify runs the command, waiting first if the previous run was too recent.
func (c *CommandNotifier) Notify(ctx context.Context, prayer domain.Prayer, at time.Time) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify %s: %w", prayer, err)
	}

	r := strings.NewReplacer("{prayer}", prayer.Title(), "{time}", at.Format("15:04"))
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = r.Replace(a)
	}

	output, err := c.run(ctx, args[0], args[1:]...)
	if err != nil {
		return fmt.Errorf("notify command failed: %w, output: %s", err, string(output))
	}
	return nil
}
