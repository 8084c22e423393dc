package pipeline

import (
	"sync"
	"time"

	"icf-classifier/api/internal/apperr"
)

type State int

const (
	Idle State = iota
	Validating
	Normalizing
	Prompting
	Requesting
	Extracting
	Rendered
	Failed
)

var stateNames = [...]string{"idle", "validating", "normalizing", "prompting", "requesting", "extracting", "rendered", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s == Rendered || s == Failed }

// Transition is reported to an Observer each time a run changes state.
// Elapsed is the time spent in From. Kind is set when To is Failed.
// Images is the number of normalized images once Normalizing is left.
type Transition struct {
	From    State
	To      State
	Elapsed time.Duration
	Kind    apperr.Kind
	Images  int
}

type Observer interface {
	Observe(Transition)
}

type ObserverFunc func(Transition)

func (f ObserverFunc) Observe(t Transition) { f(t) }

// Trigger is the user's submit control. It is disabled while a run is in
// flight and enabled again on every exit path.
type Trigger interface {
	Disable()
	Enable()
}

// Gate hands out one Trigger per key, such as a chat id, so a surface can
// refuse a second submission while the first is still running.
type Gate struct {
	mu   sync.Mutex
	busy map[string]bool
}

func NewGate() *Gate {
	return &Gate{busy: map[string]bool{}}
}

// TryAcquire returns the key's trigger already disabled, or false if a run
// for key is in flight.
func (g *Gate) TryAcquire(key string) (Trigger, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[key] {
		return nil, false
	}
	g.busy[key] = true
	return &gateTrigger{g: g, key: key}, true
}

func (g *Gate) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy[key]
}

type gateTrigger struct {
	g   *Gate
	key string
}

func (t *gateTrigger) Disable() {
	t.g.mu.Lock()
	t.g.busy[t.key] = true
	t.g.mu.Unlock()
}

func (t *gateTrigger) Enable() {
	t.g.mu.Lock()
	delete(t.g.busy, t.key)
	t.g.mu.Unlock()
}
