// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"sync"
)

// Persister is the storage a Context writes through to.
type Persister interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Context is the process-wide holder of the logged-in session. It is the
// only component that reads or writes stored credentials; API clients get
// the token through Token.
type Context struct {
	mu      sync.RWMutex
	current *Session
	store   Persister
}

func NewContext(store Persister) *Context {
	return &Context{store: store}
}

// Load reads the stored session into memory. A missing session is not an error.
func (c *Context) Load() error {
	sess, err := c.store.Load()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.current = &sess
	c.mu.Unlock()
	return nil
}

// Login replaces the current session and persists it.
func (c *Context) Login(sess Session) error {
	if err := c.store.Save(sess); err != nil {
		return err
	}
	c.mu.Lock()
	c.current = &sess
	c.mu.Unlock()
	return nil
}

func (c *Context) Logout() error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	return c.store.Clear()
}

// Current returns the logged-in session, if any.
func (c *Context) Current() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Session{}, false
	}
	return *c.current, true
}

// Token returns the bearer token, or "" when logged out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.Token
}
