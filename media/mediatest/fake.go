// Package mediatest provides a recording media.Processor for tests.
package mediatest

import (
	"context"
	"os"
	"sync"
	"time"
)

// Fake records every ffmpeg invocation. Unless Fail is set for the call it
// writes a small file at the last argument, which is where ffmpeg puts its
// output.
type Fake struct {
	mu    sync.Mutex
	Calls [][]string
	// Fail makes the nth call (1-based) return the error.
	Fail map[int]error
	// SkipOutput leaves the output file unwritten, as a silent failure would.
	SkipOutput bool
	// Durations answers Probe by path; unknown paths probe as one second.
	Durations map[string]time.Duration
}

func (f *Fake) Run(_ context.Context, args ...string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]string(nil), args...))
	n := len(f.Calls)
	f.mu.Unlock()

	if err := f.Fail[n]; err != nil {
		return err
	}
	if f.SkipOutput || len(args) == 0 {
		return nil
	}
	return os.WriteFile(args[len(args)-1], []byte("fake media"), 0644)
}

func (f *Fake) Probe(_ context.Context, path string) (time.Duration, error) {
	if d, ok := f.Durations[path]; ok {
		return d, nil
	}
	return time.Second, nil
}

// CallCount is safe to use while other goroutines run
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
