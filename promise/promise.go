// Package promise implements the deferred-execution engine the
// network-backed sources are sequenced on.
//
// A Promise is a single-assignment deferred value scheduled on a Loop. The
// resolver callback runs synchronously at construction and settlement
// latches immediately, but continuations always run as fresh loop tasks,
// never inline: a chain registered inside a synchronous block cannot start
// before that block finishes. Settled state is terminal; later resolve or
// reject calls are ignored.
//
// Resolving with another *Promise adopts its eventual outcome instead of
// storing it as a value. A rejection that reaches the end of a chain with
// no rejection handler attached is reported through the loop's logger.
package promise

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle position of a promise.
type State int

const (
	StatePending State = iota
	StateResolved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// handler is one registered continuation. Exactly one of the callback
// fields is used; next is the derived promise it settles. complete marks an
// internal subscription (adoption, combinators) with no derived promise.
type handler struct {
	onResolved func(v any) (any, error)
	onRejected func(err error) (any, error)
	finally    func()
	complete   func(st State, v any, err error)
	next       *Promise
}

// Promise is a single-assignment deferred value. See the package comment
// for the scheduling contract.
type Promise struct {
	loop *Loop

	mu       sync.Mutex
	state    State
	value    any
	err      error
	handlers []handler
	done     chan struct{}
	received bool
}

// New builds a promise on loop and invokes resolver synchronously with the
// resolve and reject captures. A panic inside the resolver becomes a
// rejection.
func New(loop *Loop, resolver func(resolve func(v any), reject func(err error))) *Promise {
	p := newPromise(loop)
	if resolver != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.reject(fmt.Errorf("%v", r))
				}
			}()
			resolver(p.resolve, p.reject)
		}()
	}
	return p
}

// Resolve returns a promise already resolved with v. Continuations still
// run deferred.
func Resolve(loop *Loop, v any) *Promise {
	p := newPromise(loop)
	p.resolve(v)
	return p
}

// Reject returns a promise already rejected with err.
func Reject(loop *Loop, err error) *Promise {
	p := newPromise(loop)
	p.reject(err)
	return p
}

// Deferred returns a pending promise plus its resolve and reject captures,
// for producers that settle from outside a resolver callback.
func Deferred(loop *Loop) (*Promise, func(v any), func(err error)) {
	p := newPromise(loop)
	return p, p.resolve, p.reject
}

func newPromise(loop *Loop) *Promise {
	return &Promise{loop: loop, done: make(chan struct{})}
}

// Loop reports the loop the promise is scheduled on.
func (p *Promise) Loop() *Loop { return p.loop }

// Then registers a continuation for the resolved case and returns the
// derived promise. A returned error rejects it; a returned *Promise is
// adopted. Rejections pass through to the derived promise untouched.
func (p *Promise) Then(onResolved func(v any) (any, error)) *Promise {
	return p.Handle(onResolved, nil)
}

// Catch registers a continuation for the rejected case. Returning a nil
// error recovers the chain with the returned value.
func (p *Promise) Catch(onRejected func(err error) (any, error)) *Promise {
	return p.Handle(nil, onRejected)
}

// Handle registers both arms at once. Either may be nil, in which case the
// corresponding outcome passes through.
func (p *Promise) Handle(onResolved func(v any) (any, error), onRejected func(err error) (any, error)) *Promise {
	next := newPromise(p.loop)
	p.enqueue(handler{onResolved: onResolved, onRejected: onRejected, next: next})
	return next
}

// Finally runs fn once the promise settles either way and passes the
// outcome through unchanged. A panic inside fn rejects the derived promise.
func (p *Promise) Finally(fn func()) *Promise {
	next := newPromise(p.loop)
	p.enqueue(handler{finally: fn, next: next})
	return next
}

// State reports the current lifecycle position.
func (p *Promise) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Settled reports whether the promise left the pending state.
func (p *Promise) Settled() bool { return p.State() != StatePending }

// Result returns the latched outcome. Before settlement both returns are
// zero; after it, exactly one is set.
func (p *Promise) Result() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// Done returns a channel closed at settlement. Continuations may still be
// queued on the loop when it closes.
func (p *Promise) Done() <-chan struct{} { return p.done }

// subscribe registers an internal completion callback. Like any
// continuation it runs as a loop task.
func (p *Promise) subscribe(fn func(st State, v any, err error)) {
	p.enqueue(handler{complete: fn})
}

func (p *Promise) enqueue(h handler) {
	p.mu.Lock()
	p.handlers = append(p.handlers, h)
	settled := p.state != StatePending
	p.mu.Unlock()
	if settled {
		p.loop.Post(p.dispatch)
	}
}

func (p *Promise) resolve(v any) {
	if inner, ok := v.(*Promise); ok {
		if inner == p {
			p.settle(StateRejected, nil, errors.New("promise resolved with itself"))
			return
		}
		inner.subscribe(func(st State, v any, err error) {
			if st == StateRejected {
				p.settle(StateRejected, nil, err)
				return
			}
			p.resolve(v)
		})
		return
	}
	p.settle(StateResolved, v, nil)
}

func (p *Promise) reject(err error) {
	if err == nil {
		err = errors.New("promise rejected")
	}
	p.settle(StateRejected, nil, err)
}

// settle latches the outcome. The first call wins; the rest are ignored.
func (p *Promise) settle(st State, v any, err error) {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()
		return
	}
	p.state = st
	p.value = v
	p.err = err
	close(p.done)
	p.mu.Unlock()
	p.loop.Post(p.dispatch)
}

// dispatch delivers the settled outcome to the continuations registered so
// far, in registration order. It runs as a loop task. A rejection arriving
// here with no continuation at all is the end of a chain nobody handles;
// it is logged and otherwise swallowed.
func (p *Promise) dispatch() {
	p.mu.Lock()
	st, v, err := p.state, p.value, p.err
	hs := p.handlers
	p.handlers = nil
	orphaned := st == StateRejected && len(hs) == 0 && !p.received
	if len(hs) > 0 || orphaned {
		p.received = true
	}
	p.mu.Unlock()

	if orphaned {
		p.loop.log.Warningf("unhandled promise rejection: %v", err)
		return
	}
	for _, h := range hs {
		p.deliver(h, st, v, err)
	}
}

func (p *Promise) deliver(h handler, st State, v any, err error) {
	if h.complete != nil {
		h.complete(st, v, err)
		return
	}
	if h.finally != nil {
		if ferr := call(h.finally); ferr != nil {
			h.next.settle(StateRejected, nil, ferr)
		} else if st == StateResolved {
			h.next.resolve(v)
		} else {
			h.next.settle(StateRejected, nil, err)
		}
		return
	}
	if st == StateResolved {
		if h.onResolved == nil {
			h.next.resolve(v)
			return
		}
		out, herr := callValue(h.onResolved, v)
		if herr != nil {
			h.next.settle(StateRejected, nil, herr)
			return
		}
		h.next.resolve(out)
		return
	}
	if h.onRejected == nil {
		h.next.settle(StateRejected, nil, err)
		return
	}
	out, herr := callError(h.onRejected, err)
	if herr != nil {
		h.next.settle(StateRejected, nil, herr)
		return
	}
	h.next.resolve(out)
}

// call helpers convert continuation panics into errors so a panicking
// handler rejects its derived promise instead of killing the loop.

func call(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}

func callValue(fn func(any) (any, error), v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return fn(v)
}

func callError(fn func(error) (any, error), in error) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return fn(in)
}
