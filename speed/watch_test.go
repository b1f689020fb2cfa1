package speed

import (
	"errors"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher() (*Watcher, chan fsnotify.Event, chan error) {
	w := &Watcher{
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	go w.run(events, errs)
	return w, events, errs
}

func TestWatcherDeliversAfterErrorBurst(t *testing.T) {
	w, events, errs := newTestWatcher()
	defer close(w.closeCh)

	// the second error overflows the Errors buffer; event delivery must
	// keep going regardless
	errs <- errors.New("queue overflow")
	errs <- errors.New("queue overflow")

	events <- fsnotify.Event{Name: "profiles.yaml", Op: fsnotify.Write}
	select {
	case name := <-w.Events:
		if name != "profiles.yaml" {
			t.Errorf("event name = %q, want profiles.yaml", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered after error burst")
	}

	if err := <-w.Errors; err == nil {
		t.Errorf("buffered error lost")
	}
}

func TestWatcherFiltersAndDebounces(t *testing.T) {
	w, events, _ := newTestWatcher()
	defer close(w.closeCh)

	events <- fsnotify.Event{Name: "level.json", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "profiles.yaml", Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: "profiles.yaml", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "profiles.yaml", Op: fsnotify.Write} // inside debounce window

	select {
	case name := <-w.Events:
		if name != "profiles.yaml" {
			t.Errorf("event name = %q, want profiles.yaml", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("yaml write not delivered")
	}

	select {
	case name := <-w.Events:
		t.Errorf("unexpected second event %q", name)
	case <-time.After(50 * time.Millisecond):
	}
}
