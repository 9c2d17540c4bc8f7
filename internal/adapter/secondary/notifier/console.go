package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"adhan-manager/internal/domain"
	"adhan-manager/internal/format"
)

// ConsoleNotifier writes one line per prayer to w.
type ConsoleNotifier struct {
	mu        sync.Mutex
	w         io.Writer
	formatter *format.Formatter
}

// NewConsoleNotifier creates a console notifier.
func NewConsoleNotifier(w io.Writer, formatter *format.Formatter) *ConsoleNotifier {
	return &ConsoleNotifier{w: w, formatter: formatter}
}

// Notify prints the prayer and its time.
func (c *ConsoleNotifier) Notify(_ context.Context, prayer domain.Prayer, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prayer == domain.PrayerNone {
		_, err := fmt.Fprintln(c.w, "No prayer left today")
		return err
	}
	_, err := fmt.Fprintf(c.w, "%s  %s\n", c.formatter.Timestamp(at), prayer.Title())
	return err
}
