// Package view holds the screen-selection state machine of a dashboard tab.
// It is pure: it decides the next screen and the side effect to run, and
// leaves running the effect to the caller.
package view

import "github.com/botivate/systems-dashboard/internal/domain/auth"

// State is the active screen.
type State string

const (
	StateLoggingIn       State = "logging_in"
	StateDashboard       State = "dashboard"
	StateViewingComplete State = "viewing_complete"
	StateViewingRunning  State = "viewing_running"
)

// Event is a user action or session outcome fed to the machine.
type Event string

const (
	EventLoginSucceeded Event = "login_succeeded"
	EventSelectComplete Event = "select_complete"
	EventSelectRunning  Event = "select_running"
	EventBack           Event = "back"
	EventLogout         Event = "logout"
)

// Effect is the side effect requested by a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectFetchCatalog asks for a fetch+project of the catalog for the session user.
	EffectFetchCatalog
	// EffectClearSession asks for the session and the catalog to be dropped.
	EffectClearSession
)

// String implements fmt.Stringer.
func (e Effect) String() string {
	switch e {
	case EffectFetchCatalog:
		return "fetch_catalog"
	case EffectClearSession:
		return "clear_session"
	default:
		return "none"
	}
}

// Start resolves the initial state of a tab.
// A restored session skips the login screen and triggers a catalog fetch.
func Start(restored bool) (State, Effect) {
	if restored {
		return StateDashboard, EffectFetchCatalog
	}
	return StateLoggingIn, EffectNone
}

// Transition returns the next state and effect for an event.
// Pairs not listed below are no-ops: the state is returned unchanged with
// EffectNone. Selecting the running list is only reachable for admins.
func Transition(from State, ev Event, role auth.Role) (State, Effect) {
	if ev == EventLogout {
		return StateLoggingIn, EffectClearSession
	}

	switch from {
	case StateLoggingIn:
		if ev == EventLoginSucceeded {
			return StateDashboard, EffectFetchCatalog
		}
	case StateDashboard:
		switch ev {
		case EventSelectComplete:
			return StateViewingComplete, EffectNone
		case EventSelectRunning:
			if role == auth.RoleAdmin {
				return StateViewingRunning, EffectNone
			}
		case EventLoginSucceeded, EventBack, EventLogout:
		}
	case StateViewingComplete, StateViewingRunning:
		if ev == EventBack {
			return StateDashboard, EffectNone
		}
	}
	return from, EffectNone
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateLoggingIn, StateDashboard, StateViewingComplete, StateViewingRunning:
		return true
	default:
		return false
	}
}
