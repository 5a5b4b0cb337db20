package pages

import (
	"testing"

	"github.com/devcrafthub/client-portal/internal/session"
)

func TestVisitSequenceHasOneCurrentPage(t *testing.T) {
	m := NewMachine()
	if m.Current() != Home {
		t.Fatalf("initial page should be home, got %s", m.Current())
	}

	sequence := []Page{Services, Calendar, Checkout, Home, Login, Dashboard}
	for _, p := range sequence {
		m.Visit(p)
		if m.Current() != p {
			t.Fatalf("after Visit(%s) current is %s", p, m.Current())
		}
	}
}

func TestAuthDuringLoginForcesDashboard(t *testing.T) {
	for _, start := range []Page{Login, Signup} {
		m := NewMachine()
		m.Visit(start)
		m.ApplySession(session.Session{Authenticated: true, UserID: "u-1"})
		if m.Current() != Dashboard {
			t.Errorf("auth on %s should force dashboard, got %s", start, m.Current())
		}
	}
}

func TestAuthElsewhereDoesNotRedirect(t *testing.T) {
	m := NewMachine()
	m.Visit(Services)
	m.ApplySession(session.Session{Authenticated: true})
	if m.Current() != Services {
		t.Fatalf("auth on services must not redirect, got %s", m.Current())
	}
}

func TestSignOutDoesNotMovePages(t *testing.T) {
	m := NewMachine()
	m.ApplySession(session.Session{Authenticated: true})
	m.Visit(Dashboard)
	m.ApplySession(session.Anonymous())
	if m.Current() != Dashboard {
		t.Fatalf("sign-out must not change the current page, got %s", m.Current())
	}
}

func TestDashboardSoftRedirectsToLogin(t *testing.T) {
	m := NewMachine()
	m.Visit(Dashboard)

	if m.Rendered() != Login {
		t.Fatalf("unauthenticated dashboard should render login, got %s", m.Rendered())
	}
	// Soft redirect only: the current page is still dashboard.
	if m.Current() != Dashboard {
		t.Fatalf("soft redirect must not change current page, got %s", m.Current())
	}

	m.ApplySession(session.Session{Authenticated: true})
	if m.Rendered() != Dashboard {
		t.Fatalf("authenticated dashboard should render dashboard, got %s", m.Rendered())
	}
}

func TestTransitionHookFiresOnForcedTransition(t *testing.T) {
	m := NewMachine()
	var transitions [][2]Page
	m.OnTransition(func(from, to Page) {
		transitions = append(transitions, [2]Page{from, to})
	})

	m.Visit(Signup)
	m.ApplySession(session.Session{Authenticated: true})

	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}
	if transitions[1] != [2]Page{Signup, Dashboard} {
		t.Fatalf("unexpected forced transition %v", transitions[1])
	}
}

func TestPageRoundTrip(t *testing.T) {
	for _, p := range []Page{Home, Login, Signup, Services, Calendar, Checkout, Dashboard} {
		parsed, err := Parse(p.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", p, err)
		}
		if parsed != p {
			t.Errorf("round trip mismatch: %s != %s", parsed, p)
		}
	}
	if _, err := Parse("settings"); err == nil {
		t.Error("unknown page should not parse")
	}
}
