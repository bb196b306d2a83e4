package routing

import "github.com/almacen/almacen-ui/internal/domain/auth"

// Outcome is the result kind of a guard evaluation.
type Outcome int

const (
	Proceed Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Decision is what the guard returns for one navigation.
type Decision struct {
	Outcome Outcome
	// Target is the route name to redirect to; empty for Proceed.
	Target string
}

// Allowed reports whether the navigation may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Proceed }

// Evaluate decides whether state may enter route. Rules are checked in
// order and the first match wins:
//  1. auth required and no token: login
//  2. general admin required and role is not admin_general: home
//  3. login route while holding a token: home
//  4. proceed
func Evaluate(route Route, state auth.State) Decision {
	if route.Access.RequiresAuth() && !state.HasToken() {
		return Decision{Outcome: RedirectLogin, Target: NameLogin}
	}
	if route.Access.RequiresGeneralAdmin() && !state.Role.IsGeneralAdmin() {
		return Decision{Outcome: RedirectHome, Target: NameHome}
	}
	if route.IsLogin() && state.HasToken() {
		return Decision{Outcome: RedirectHome, Target: NameHome}
	}
	return Decision{Outcome: Proceed}
}

// Visible returns the navigation routes state may enter, in table order.
func (t *Table) Visible(state auth.State) []Route {
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		if r.Nav && Evaluate(r, state).Allowed() {
			out = append(out, r)
		}
	}
	return out
}
