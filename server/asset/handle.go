// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package asset

import (
	"sync/atomic"

	"github.com/SoftbearStudios/realmwalk/server/world"
)

// State of a cache entry. It only ever moves from Loading to one of the
// settled states.
type State int32

const (
	Loading State = iota
	Ready
	Fallback
)

var stateStrings = [...]string{
	Loading:  "loading",
	Ready:    "ready",
	Fallback: "fallback",
}

func (state State) String() string {
	if state < 0 || int(state) >= len(stateStrings) {
		return "invalid"
	}
	return stateStrings[state]
}

func (state State) MarshalText() ([]byte, error) {
	return []byte(state.String()), nil
}

// Handle is shared by every holder of the same kind. State and Template may
// be read from any goroutine; they only change inside Cache.Pump.
type Handle struct {
	kind     world.AssetKind
	state    atomic.Int32
	template atomic.Pointer[Template]
	done     chan struct{}
	err      error // written before done is closed
}

func newHandle(kind world.AssetKind) *Handle {
	return &Handle{kind: kind, done: make(chan struct{})}
}

func (h *Handle) Kind() world.AssetKind {
	return h.kind
}

func (h *Handle) State() State {
	return State(h.state.Load())
}

// Template returns the loaded or placeholder template, or nil while Loading.
func (h *Handle) Template() *Template {
	return h.template.Load()
}

// Done is closed once the handle leaves Loading.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err is the load error behind a Fallback. Only valid after Done.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

func (h *Handle) settle(template *Template, state State, err error) {
	h.err = err
	h.template.Store(template)
	h.state.Store(int32(state))
	close(h.done)
}
