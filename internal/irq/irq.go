// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package irq emulates threaded GPIO interrupts by polling pad levels.
//
// A top half runs in the polling goroutine on every matching edge and
// decides whether to wake the threaded bottom half, which runs in its
// own goroutine in event order.
package irq

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platinasystems/log"
	"github.com/platinasystems/nxgpio"
)

// PollInterval is the pad sampling period of new actions.
var PollInterval = 10 * time.Millisecond

// QueueLen is the number of events that may wait for the bottom half.
const QueueLen = 16

type Trigger uint8

const (
	Rising Trigger = 1 << iota
	Falling
	Both = Rising | Falling
)

func (t Trigger) String() string {
	switch t {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	case Both:
		return "both"
	}
	return fmt.Sprint("trigger(", uint8(t), ")")
}

func ParseTrigger(s string) (Trigger, error) {
	for _, t := range []Trigger{Rising, Falling, Both} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("trigger %q: %w, must be rising|falling|both",
		s, nxgpio.ErrConfig)
}

// Return is the verdict of a top half.
type Return uint8

const (
	None Return = iota
	Handled
	WakeThread
)

type Event struct {
	Name string
	// Level is the pad level after the edge.
	Level bool
	Time  time.Time
}

func (ev Event) Edge() Trigger {
	if ev.Level {
		return Rising
	}
	return Falling
}

type Handler func(Event) Return
type ThreadFn func(Event)

// Sampler returns the current pad level.
type Sampler func() (bool, error)

// Action is a requested interrupt.
type Action struct {
	name    string
	trigger Trigger
	sample  Sampler
	top     Handler
	thread  ThreadFn

	events chan Event
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	fired, dropped atomic.Uint64
}

// Request starts polling sample for trigger edges. A nil top half wakes
// the thread on every edge; a nil thread handles everything in the top.
func Request(name string, sample Sampler, trigger Trigger, top Handler,
	thread ThreadFn) (*Action, error) {
	if trigger&Both == 0 {
		return nil, fmt.Errorf("%s: %v: %w", name, trigger,
			nxgpio.ErrConfig)
	}
	level, err := sample()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	a := &Action{
		name:    name,
		trigger: trigger,
		sample:  sample,
		top:     top,
		thread:  thread,
		events:  make(chan Event, QueueLen),
		stop:    make(chan struct{}),
	}
	if a.top == nil {
		a.top = func(Event) Return { return WakeThread }
	}
	a.wg.Add(1)
	go a.poll(level)
	if thread != nil {
		a.wg.Add(1)
		go a.bottom()
	}
	return a, nil
}

func (a *Action) String() string { return a.name }

// Fired counts top half calls.
func (a *Action) Fired() uint64 { return a.fired.Load() }

// Dropped counts events lost to a full thread queue.
func (a *Action) Dropped() uint64 { return a.dropped.Load() }

func (a *Action) poll(level bool) {
	defer a.wg.Done()
	defer close(a.events)
	t := time.NewTicker(PollInterval)
	defer t.Stop()
	var failing bool
	for {
		select {
		case <-a.stop:
			return
		case now := <-t.C:
			v, err := a.sample()
			if err != nil {
				if !failing {
					log.Print("daemon", "err", a.name, ": ", err)
				}
				failing = true
				continue
			}
			failing = false
			if v == level {
				continue
			}
			level = v
			ev := Event{Name: a.name, Level: v, Time: now}
			if ev.Edge()&a.trigger == 0 {
				continue
			}
			a.fired.Add(1)
			if a.top(ev) != WakeThread || a.thread == nil {
				continue
			}
			select {
			case a.events <- ev:
			default:
				a.dropped.Add(1)
			}
		}
	}
}

func (a *Action) bottom() {
	defer a.wg.Done()
	for ev := range a.events {
		a.thread(ev)
	}
}

// Free stops polling and waits for the bottom half to finish the queued
// events.
func (a *Action) Free() {
	a.once.Do(func() {
		close(a.stop)
	})
	a.wg.Wait()
}

// Debounce returns a top half that ignores edges within d of the last
// accepted edge and passes the others to h.
func Debounce(d time.Duration, h Handler) Handler {
	var (
		mu   sync.Mutex
		last time.Time
	)
	if h == nil {
		h = func(Event) Return { return WakeThread }
	}
	return func(ev Event) Return {
		mu.Lock()
		if !last.IsZero() && ev.Time.Sub(last) < d {
			mu.Unlock()
			return Handled
		}
		last = ev.Time
		mu.Unlock()
		return h(ev)
	}
}
