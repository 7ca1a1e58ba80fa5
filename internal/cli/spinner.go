package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// spinnerFrames is the braille animation drawn before the message.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line on stderr while a command works. On a
// non-terminal writer it stays silent.
type Spinner struct {
	out         io.Writer
	interactive bool
	message     string
	start       time.Time

	stopOnce sync.Once
	quit     chan struct{}
	finished chan struct{}
	width    int
}

// startSpinner starts a spinner on stderr that stops by itself when ctx ends.
func startSpinner(ctx context.Context, message string) *Spinner {
	return startSpinnerOn(ctx, os.Stderr, isTerminal(os.Stderr), message)
}

func startSpinnerOn(ctx context.Context, out io.Writer, interactive bool, message string) *Spinner {
	s := &Spinner{
		out:         out,
		interactive: interactive,
		message:     message,
		start:       time.Now(),
		quit:        make(chan struct{}),
		finished:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Spinner) run(ctx context.Context) {
	defer close(s.finished)
	if !s.interactive {
		select {
		case <-ctx.Done():
		case <-s.quit:
		}
		return
	}

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.quit:
			s.clear()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	line := fmt.Sprintf("%s %s", s.message, formatElapsed(time.Since(s.start)))
	s.width = len([]rune(line)) + 2
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
}

func (s *Spinner) clear() {
	if s.width > 0 {
		fmt.Fprintf(s.out, "\r%*s\r", s.width, "")
	}
}

// Stop ends the animation and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.finished
}

// Fail stops the spinner and prints message as an error.
func (s *Spinner) Fail(message string) {
	s.Stop()
	printError("%s", message)
}

// formatElapsed renders d in whole tenths of a second, e.g. "(1.2s)".
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("(%.1fs)", d.Seconds())
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
