package httpx

import "github.com/almacen/almacen-ui/internal/domain/routing"

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files

	StaticPathFromRoot = "frontend/static"
)

// Cookie names shared by the auth handlers and middleware.
const (
	SessionCookieName   = "session_id"
	stateCookieName     = "oauth_state"
	nonceCookieName     = "oauth_nonce"
	postLoginCookieName = "post_login_redirect"
)

// Pages that are not routes of their own.
const (
	PageError = "error"
)

// Default list page size.
const defaultPageSize = 25

// Content templates keyed by route name. The guarded /pedidos entry never
// renders; it forwards to pedidos-realizados.
//
//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	routing.NameLogin:             "login-content",
	routing.NameHome:              "dashboard-content",
	routing.NamePedidosRealizados: "pedidos-content",
	routing.NamePedidosRecibidos:  "pedidos-content",
	routing.NameProductos:         "productos-content",
	routing.NameProveedores:       "proveedores-content",
	routing.NameSucursales:        "sucursales-content",
	routing.NameUsuarios:          "usuarios-content",
	routing.NameUsuariosGestion:   "usuarios-gestion-content",
	routing.NameUsuariosCrear:     "usuarios-crear-content",
	PageError:                     "error-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to dashboard-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "dashboard-content"
}
