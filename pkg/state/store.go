package state

import (
	"context"
	"sync"

	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/xerror"
)

const eventQueueSize = 64

var ErrStoreRunning = xerror.New("store is already running")

type Reducer func(State, Event) State

// Handler reacts to a dispatched event. Follow up events must go through
// send, they are dispatched straight after the current event and never
// wait on the queue.
type Handler func(e Event, send func(Event))

// Store holds a single State and a queue of events. Run is the only
// consumer of the queue, each event goes through the reducer and then
// every handler before the next one is taken.
type Store struct {
	label        string
	mu           sync.Mutex
	state        State
	reducer      Reducer
	handlers     []Handler
	subs         map[int]chan State
	nextSubID    int
	subscribed   bool
	onSubscribed func()

	events    chan Event
	sendMu    sync.RWMutex
	stopped   bool
	done      chan struct{}
	closeDone sync.Once
	running   bool
}

func NewStore(label string, initial State) *Store {
	s := &Store{
		label:   label,
		state:   initial,
		reducer: Reduce,
		subs:    map[int]chan State{},
		events:  make(chan Event, eventQueueSize),
		done:    make(chan struct{}),
	}
	s.onSubscribed = func() { s.Send(RequestPermission{}) }
	return s
}

// Handle registers a side effect handler. Handlers run on the dispatch
// goroutine so anything slow must be moved off it.
func (s *Store) Handle(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// OnSubscribed replaces what happens on the first ever subscription.
func (s *Store) OnSubscribed(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSubscribed = f
}

// Send enqueues an event, blocking while the queue is full or until the
// running store is cancelled. Events sent after the store stopped are
// discarded and false is returned. Handlers must use the send func they
// are given instead.
func (s *Store) Send(e Event) bool {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.stopped {
		discard(e)
		return false
	}
	select {
	case s.events <- e:
		return true
	case <-s.done:
		discard(e)
		return false
	}
}

func (s *Store) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrStoreRunning
	}
	s.running = true
	s.mu.Unlock()

	defer s.stop()

	// unblocks senders waiting on a full queue once cancelled
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			s.closeDone.Do(func() { close(s.done) })
		case <-stopWatch:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-s.events:
			s.dispatch(ctx, e)
		}
	}
}

func (s *Store) dispatch(ctx context.Context, e Event) {
	pending := []Event{e}
	send := func(follow Event) { pending = append(pending, follow) }

	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		if ctx.Err() != nil {
			discard(next)
			continue
		}

		log.Debug("Dispatching event [%s] for [%s]", next.Name(), s.label)
		s.Update(func(st State) State { return s.reducer(st, next) })

		s.mu.Lock()
		handlers := make([]Handler, len(s.handlers))
		copy(handlers, s.handlers)
		s.mu.Unlock()

		for _, h := range handlers {
			h(next, send)
		}
	}
}

func (s *Store) stop() {
	s.closeDone.Do(func() { close(s.done) })
	s.sendMu.Lock()
	s.stopped = true
	s.sendMu.Unlock()

	for {
		select {
		case e := <-s.events:
			discard(e)
		default:
			return
		}
	}
}

// Update atomically replaces the state and notifies subscribers.
func (s *Store) Update(fn func(State) State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	for _, ch := range s.subs {
		publish(ch, s.state)
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel which always holds the latest state,
// older states a slow subscriber has not read yet are dropped.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan State, 1)
	ch <- s.state
	s.subs[id] = ch

	first := !s.subscribed
	s.subscribed = true
	onSubscribed := s.onSubscribed
	s.mu.Unlock()

	if first && onSubscribed != nil {
		onSubscribed()
	}

	once := sync.Once{}
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// publish must be called with the store lock held.
func publish(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- st
}
