// Package routing holds the page route table and the access decision made
// before a page is served. It has no HTTP or storage dependencies.
package routing

import (
	"errors"
	"fmt"
	"strings"
)

// AccessLevel describes who may enter a route. The zero value requires
// authentication, so a route without an explicit level is never public.
type AccessLevel int

const (
	AccessAuthenticated AccessLevel = iota
	AccessPublic
	AccessGeneralAdmin
)

func (a AccessLevel) String() string {
	switch a {
	case AccessAuthenticated:
		return "authenticated"
	case AccessPublic:
		return "public"
	case AccessGeneralAdmin:
		return "general-admin"
	default:
		return fmt.Sprintf("AccessLevel(%d)", int(a))
	}
}

// RequiresAuth reports whether a token is needed to enter.
func (a AccessLevel) RequiresAuth() bool { return a != AccessPublic }

// RequiresGeneralAdmin reports whether the admin_general role is needed.
func (a AccessLevel) RequiresGeneralAdmin() bool { return a == AccessGeneralAdmin }

// Route names referenced by the guard and the HTTP layer.
const (
	NameLogin             = "login"
	NameHome              = "home"
	NamePedidos           = "pedidos"
	NamePedidosRealizados = "pedidos-realizados"
	NamePedidosRecibidos  = "pedidos-recibidos"
	NameProductos         = "productos"
	NameProveedores       = "proveedores"
	NameSucursales        = "sucursales"
	NameUsuarios          = "usuarios"
	NameUsuariosGestion   = "usuarios-gestion"
	NameUsuariosCrear     = "usuarios-crear"
)

// Route describes one page of the application.
type Route struct {
	Name   string
	Path   string
	Title  string
	Access AccessLevel
	// RedirectTo names another route; entering this one forwards there.
	RedirectTo string
	// Nav marks routes listed in the navigation menu.
	Nav bool
}

// IsLogin reports whether r is the login route.
func (r Route) IsLogin() bool { return r.Name == NameLogin }

// Table is an ordered, immutable list of routes.
type Table struct {
	routes []Route
	byName map[string]int
	byPath map[string]int
}

var (
	ErrDuplicateName   = errors.New("routing: duplicate route name")
	ErrDuplicatePath   = errors.New("routing: duplicate route path")
	ErrUnknownRedirect = errors.New("routing: redirect to unknown route")
	ErrMissingRoute    = errors.New("routing: required route missing")
	ErrInvalidPath     = errors.New("routing: path must start with /")
)

// NewTable validates routes and builds a lookup table over a copy of them.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		routes: append([]Route(nil), routes...),
		byName: make(map[string]int, len(routes)),
		byPath: make(map[string]int, len(routes)),
	}
	for i, r := range t.routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, r.Path)
		}
		if _, ok := t.byName[r.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
		}
		if _, ok := t.byPath[r.Path]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, r.Path)
		}
		t.byName[r.Name] = i
		t.byPath[r.Path] = i
	}
	for _, r := range t.routes {
		if r.RedirectTo == "" {
			continue
		}
		if _, ok := t.byName[r.RedirectTo]; !ok {
			return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownRedirect, r.Name, r.RedirectTo)
		}
	}
	for _, required := range []string{NameLogin, NameHome} {
		if _, ok := t.byName[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingRoute, required)
		}
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on invalid input.
func MustNewTable(routes []Route) *Table {
	t, err := NewTable(routes)
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns a copy of the routes in declaration order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// ByName looks up a route by name.
func (t *Table) ByName(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// ByPath looks up a route by exact path. A single trailing slash is ignored.
func (t *Table) ByPath(path string) (Route, bool) {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	i, ok := t.byPath[path]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// PathOf returns the path for a route name, or "/" when unknown.
func (t *Table) PathOf(name string) string {
	if r, ok := t.ByName(name); ok {
		return r.Path
	}
	return "/"
}

// Login returns the login route.
func (t *Table) Login() Route {
	r, _ := t.ByName(NameLogin)
	return r
}

// Home returns the home route.
func (t *Table) Home() Route {
	r, _ := t.ByName(NameHome)
	return r
}
