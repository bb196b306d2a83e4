package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/almacen/almacen-ui/internal/adapters/memory"
	"github.com/almacen/almacen-ui/internal/apiclient"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	mockauth "github.com/almacen/almacen-ui/internal/mocks/auth"
	"github.com/almacen/almacen-ui/internal/service"
)

const (
	testPassword  = "secret123"
	testCSRFToken = "test-csrf-token"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCatalog serves canned backend data and records the state of every call.
type fakeCatalog struct {
	mu sync.Mutex

	Dash       service.Dashboard
	PedidosByK map[apiclient.PedidoKind][]apiclient.Pedido
	ProdItems  []apiclient.Producto
	ProvItems  []apiclient.Proveedor
	SucItems   []apiclient.Sucursal
	UserItems  []apiclient.Usuario
	Err        error // returned by every read
	CreateErr  error
	Created    []apiclient.CreateUsuarioRequest
	StatesSeen []domainauth.State
}

var _ CatalogServiceInterface = (*fakeCatalog)(nil)

func (f *fakeCatalog) record(st domainauth.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatesSeen = append(f.StatesSeen, st)
	return f.Err
}

func (f *fakeCatalog) Dashboard(_ context.Context, st domainauth.State) (service.Dashboard, error) {
	if err := f.record(st); err != nil {
		return service.Dashboard{}, err
	}
	return f.Dash, nil
}

func (f *fakeCatalog) Pedidos(_ context.Context, st domainauth.State, kind apiclient.PedidoKind) ([]apiclient.Pedido, error) {
	if err := f.record(st); err != nil {
		return nil, err
	}
	return f.PedidosByK[kind], nil
}

func (f *fakeCatalog) Productos(_ context.Context, st domainauth.State) ([]apiclient.Producto, error) {
	if err := f.record(st); err != nil {
		return nil, err
	}
	return f.ProdItems, nil
}

func (f *fakeCatalog) Proveedores(_ context.Context, st domainauth.State) ([]apiclient.Proveedor, error) {
	if err := f.record(st); err != nil {
		return nil, err
	}
	return f.ProvItems, nil
}

func (f *fakeCatalog) Sucursales(_ context.Context, st domainauth.State) ([]apiclient.Sucursal, error) {
	if err := f.record(st); err != nil {
		return nil, err
	}
	return f.SucItems, nil
}

func (f *fakeCatalog) Usuarios(_ context.Context, st domainauth.State) ([]apiclient.Usuario, error) {
	if err := f.record(st); err != nil {
		return nil, err
	}
	return f.UserItems, nil
}

func (f *fakeCatalog) CreateUsuario(_ context.Context, st domainauth.State, in apiclient.CreateUsuarioRequest) (apiclient.Usuario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatesSeen = append(f.StatesSeen, st)
	if f.CreateErr != nil {
		return apiclient.Usuario{}, f.CreateErr
	}
	f.Created = append(f.Created, in)
	return apiclient.Usuario{ID: int64(len(f.Created)), Username: in.Username, Nombre: in.Nombre, Rol: in.Rol, Activo: true}, nil
}

func (f *fakeCatalog) lastState() domainauth.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.StatesSeen) == 0 {
		return domainauth.State{}
	}
	return f.StatesSeen[len(f.StatesSeen)-1]
}

// testEnv is a fully wired router backed by in-memory sessions, a stub
// password check, a mock identity provider and a fake catalog.
type testEnv struct {
	Handler  http.Handler
	Auth     *service.AuthService
	Sessions *memory.SessionStore
	Catalog  *fakeCatalog
	Provider *mockauth.MockAuthProvider
}

// envOption adjusts the router services before the router is built.
type envOption func(*RouterServices)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); err != nil {
		t.Skipf("templates not available: %v", err)
	}

	sessions := memory.NewSessionStore()
	provider := mockauth.NewMockAuthProvider()
	provider.DefaultUser.Role = domainauth.RoleGeneralAdmin
	authn := &mockauth.StubAuthenticator{Users: map[string]mockauth.StubUser{
		"admin": {Password: testPassword, Identity: domainauth.Identity{
			Name: "Ana Admin", Email: "ana@almacen.test", Role: domainauth.RoleGeneralAdmin, Token: "tok-admin",
		}},
		"empleado": {Password: testPassword, Identity: domainauth.Identity{
			Name: "Eva Empleada", Role: domainauth.RoleEmployee, Token: "tok-emp",
		}},
	}}
	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Providers: service.AuthProviders{Redirect: provider, Password: authn},
		Sessions:  sessions,
	})
	catalog := &fakeCatalog{}

	services := RouterServices{
		Auth:       authSvc,
		Catalog:    catalog,
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(&services)
	}

	h, err := NewRouter(services)
	require.NoError(t, err)
	return &testEnv{Handler: h, Auth: authSvc, Sessions: sessions, Catalog: catalog, Provider: provider}
}

// login starts a session for a stub user and returns its cookie.
func (e *testEnv) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	sess, err := e.Auth.LoginWithPassword(context.Background(), username, testPassword)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookieName, Value: sess.ID}
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, req)
	return rec
}

// sessionExists reports whether the store still holds id.
func (e *testEnv) sessionExists(id string) bool {
	_, err := e.Sessions.Get(context.Background(), id)
	return err == nil
}

func browserGet(path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func jsonGet(path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func htmxGet(path string, cookies ...*http.Cookie) *http.Request {
	req := browserGet(path, cookies...)
	req.Header.Set("Hx-Request", "true")
	return req
}

// formPost builds a browser form submission that passes CSRF validation.
func formPost(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// jsonPost builds a JSON submission carrying the CSRF header.
func jsonPost(path, body string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(DefaultCSRFHeaderName, testCSRFToken)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// responseCookie returns the named Set-Cookie from rec, or nil.
func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	resp := rec.Result()
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
