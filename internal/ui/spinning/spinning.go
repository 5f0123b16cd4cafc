// Package spinning provides a friendly spinning symbol to display while the program is busy
// (e.g. saving a large Q-table), and the handling of interruptions (Ctrl+C) with a grace period.
package spinning

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

var (
	ThemeAscii = []rune("|/-\\")
	ThemeMoon  = []rune("🌑🌒🌓🌔🌕🌖🌗🌘")
	ThemeClock = []rune("🕐🕑🕒🕓🕔🕕🕖🕗🕘🕙🕚🕛")

	// Theme defaults to ThemeAscii, but it can be set to anything else.
	Theme = ThemeAscii
)

// SafeInterrupt captures SIGINT (Ctrl+C) and SIGTERM and calls onInterrupt.
// If the program hasn't exited (or called stop) gracePeriod after the signal, it resets the
// terminal and exits.
//
// The returned stop function releases the signals, and cancels the pending exit.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-done:
			return
		case s := <-sigChan:
			fmt.Println()
			klog.Errorf("Got interrupted (signal %q), shutting down... (%s)", s, gracePeriod)
			if onInterrupt != nil {
				go onInterrupt()
			}
		}

		// Wait for gracePeriod before exiting.
		select {
		case <-done:
		case <-time.After(gracePeriod):
			Reset(os.Stdout)
			klog.Fatalf("Graceful shutting down %s period expired, exiting.", gracePeriod)
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
		})
	}
}

// WithInterrupt returns a context that is cancelled on SIGINT or SIGTERM. See SafeInterrupt.
func WithInterrupt(ctx context.Context, gracePeriod time.Duration) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := SafeInterrupt(cancel, gracePeriod)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Reset terminal: make cursor visible, restore default terminal colors.
func Reset(w io.Writer) {
	_, _ = fmt.Fprint(w, "\033[?25h\033[39;49;0m\n") // Restore cursor and colors.
}

// Spinning displays a spinning symbol after a message, until Done is called.
type Spinning struct {
	wg     sync.WaitGroup
	cancel func()
}

// New starts a spinning display on w, after printing message. It runs on a separate goroutine,
// and stops when Spinning.Done is called or ctx is cancelled.
func New(ctx context.Context, w io.Writer, message string) *Spinning {
	s := &Spinning{}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		// Hide the cursor while spinning.
		_, _ = fmt.Fprint(w, "\033[?25l")
		defer func() { _, _ = fmt.Fprint(w, "\033[?25h\n") }()

		_, _ = fmt.Fprintf(w, "%s  ", message)
		for idx := 0; ; idx = (idx + 1) % len(Theme) {
			_, _ = fmt.Fprintf(w, "\b\b%c ", Theme[idx])
			select {
			case <-ctx.Done():
				_, _ = fmt.Fprint(w, "\b\b  ")
				return
			case <-ticker.C:
				// continue
			}
		}
	}()
	return s
}

// Done stops the spinning display, and waits for it to clean up.
func (s *Spinning) Done() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}
