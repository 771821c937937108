package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner renders a progress indicator on a terminal writer while a long
// operation runs. Safe for concurrent use.
type Spinner struct {
	w io.Writer

	mu      sync.Mutex
	message string
	quit    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a spinner that writes to w, typically stderr.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Start begins the animation with the given message. On a running spinner
// it only replaces the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.quit != nil {
		return
	}
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.quit, s.done)
}

// Update replaces the displayed message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and clears the line. It is idempotent and safe to
// call on a spinner that was never started.
func (s *Spinner) Stop() {
	s.mu.Lock()
	quit, done := s.quit, s.done
	s.quit, s.done = nil, nil
	s.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	<-done
	fmt.Fprint(s.w, "\r\033[K")
}

func (s *Spinner) run(quit, done chan struct{}) {
	defer close(done)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-quit:
			return
		case <-tick.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			fmt.Fprintf(s.w, "\r\033[K%s %s", spinnerFrames[i%len(spinnerFrames)], msg)
		}
	}
}
