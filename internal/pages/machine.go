package pages

import (
	"sync"

	"github.com/devcrafthub/client-portal/internal/session"
)

// TransitionHook observes completed transitions. The original client
// resets scroll position here; the server wires in metrics and logging.
type TransitionHook func(from, to Page)

// Machine tracks the single current page for one visitor. Transitions
// are flat: Visit moves unconditionally. The one guarded rule is that a
// session becoming authenticated while the visitor sits on Login or
// Signup forces a move to Dashboard, and that guard wins over explicit
// requests already in flight.
type Machine struct {
	mu      sync.Mutex
	current Page
	authed  bool
	hooks   []TransitionHook
}

// NewMachine starts a machine on Home.
func NewMachine() *Machine {
	return &Machine{current: Home}
}

// OnTransition registers a hook invoked after every completed
// transition, including forced ones.
func (m *Machine) OnTransition(hook TransitionHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Visit moves to the requested page. There are no guards on explicit
// requests; redirect rules apply at render time (see Rendered) or when
// the session changes (see ApplySession).
func (m *Machine) Visit(p Page) {
	m.mu.Lock()
	from := m.current
	m.current = p
	hooks := m.hooks
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(from, p)
	}
}

// ApplySession feeds a session change into the machine. If the session
// became authenticated while the current page is Login or Signup, the
// machine force-transitions to Dashboard.
func (m *Machine) ApplySession(s session.Session) {
	m.mu.Lock()
	m.authed = s.Authenticated
	forced := s.Authenticated && (m.current == Login || m.current == Signup)
	from := m.current
	if forced {
		m.current = Dashboard
	}
	hooks := m.hooks
	m.mu.Unlock()

	if forced {
		for _, hook := range hooks {
			hook(from, Dashboard)
		}
	}
}

// Current returns the machine's page. Exactly one page is current at
// any time.
func (m *Machine) Current() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Rendered returns the page a client should actually render. Requesting
// Dashboard while unauthenticated renders Login instead; the current
// page is not changed by this soft redirect.
func (m *Machine) Rendered() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == Dashboard && !m.authed {
		return Login
	}
	return m.current
}
