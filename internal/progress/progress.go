package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Tracker renders a spinner with a counter to w until Finish is called.
// A nil or io.Discard writer makes every call a no-op.
type Tracker struct {
	w         io.Writer
	total     int
	current   int
	message   string
	mu        sync.Mutex
	startTime time.Time
	done      chan struct{}
	stopped   chan struct{}
	once      sync.Once
}

func New(w io.Writer, total int, message string) *Tracker {
	p := &Tracker{
		w:         w,
		total:     total,
		message:   message,
		startTime: time.Now(),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	if p.quiet() {
		close(p.stopped)
		return p
	}
	go p.render()
	return p
}

func (p *Tracker) quiet() bool {
	return p.w == nil || p.w == io.Discard
}

func (p *Tracker) render() {
	defer close(p.stopped)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := 0

	for {
		select {
		case <-p.done:
			p.mu.Lock()
			elapsed := time.Since(p.startTime)
			fmt.Fprintf(p.w, "\r✓ %s (%d, %s)          \n",
				p.message, p.current, elapsed.Round(time.Millisecond))
			p.mu.Unlock()
			return

		case <-ticker.C:
			p.mu.Lock()
			if p.total > 0 {
				percent := float64(p.current) / float64(p.total) * 100
				fmt.Fprintf(p.w, "\r%s %s [%d/%d] %.0f%%  ",
					spinner[frame%len(spinner)], p.message, p.current, p.total, percent)
			} else {
				fmt.Fprintf(p.w, "\r%s %s [%d]  ",
					spinner[frame%len(spinner)], p.message, p.current)
			}
			p.mu.Unlock()
			frame++
		}
	}
}

func (p *Tracker) Increment() {
	p.mu.Lock()
	p.current++
	p.mu.Unlock()
}

func (p *Tracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish stops rendering and waits for the final line to be written.
func (p *Tracker) Finish() {
	p.once.Do(func() { close(p.done) })
	<-p.stopped
}
