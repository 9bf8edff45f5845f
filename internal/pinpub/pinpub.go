// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package pinpub publishes GPIO device state to a redis hash.
package pinpub

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/jpillora/backoff"
)

const DefaultHash = "nxgpio"

// ErrBackoff is returned while waiting to redial after a failure.
var ErrBackoff = errors.New("redis: waiting to reconnect")

// Publisher sets hash fields only when their value changes. After a
// connection failure it redials no sooner than its backoff permits and
// then publishes every field again.
type Publisher struct {
	Hash string
	Dial func() (redis.Conn, error)

	mu      sync.Mutex
	conn    redis.Conn
	backoff backoff.Backoff
	next    time.Time
	last    map[string]string
	now     func() time.Time
}

// New returns a publisher to the redis server at the tcp address.
func New(addr, hash string) *Publisher {
	return NewDialer(hash, func() (redis.Conn, error) {
		return redis.Dial("tcp", addr)
	})
}

func NewDialer(hash string, dial func() (redis.Conn, error)) *Publisher {
	return &Publisher{
		Hash: hash,
		Dial: dial,
		backoff: backoff.Backoff{
			Min:    100 * time.Millisecond,
			Max:    30 * time.Second,
			Factor: 2,
			Jitter: true,
		},
		last: make(map[string]string),
		now:  time.Now,
	}
}

func (p *Publisher) Publish(field string, value interface{}) error {
	s := fmt.Sprint(value)
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, found := p.last[field]; found && v == s {
		return nil
	}
	if err := p.connect(); err != nil {
		return err
	}
	if _, err := p.conn.Do("HSET", p.Hash, field, s); err != nil {
		p.fail()
		return fmt.Errorf("hset %s %s: %w", p.Hash, field, err)
	}
	p.last[field] = s
	return nil
}

func (p *Publisher) connect() error {
	if p.conn != nil {
		return nil
	}
	if p.now().Before(p.next) {
		return ErrBackoff
	}
	conn, err := p.Dial()
	if err != nil {
		p.next = p.now().Add(p.backoff.Duration())
		return err
	}
	p.conn = conn
	p.backoff.Reset()
	p.last = make(map[string]string)
	return nil
}

func (p *Publisher) fail() {
	p.conn.Close()
	p.conn = nil
	p.next = p.now().Add(p.backoff.Duration())
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
