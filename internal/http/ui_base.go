package httpx

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/almacen/almacen-ui/internal/apiclient"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/domain/routing"
	apperrors "github.com/almacen/almacen-ui/internal/errors"
	"github.com/almacen/almacen-ui/internal/http/ui/viewmodel"
	"github.com/almacen/almacen-ui/internal/service"
)

// CatalogServiceInterface is the backend data the pages need.
type CatalogServiceInterface interface {
	Dashboard(ctx context.Context, st domainauth.State) (service.Dashboard, error)
	Pedidos(ctx context.Context, st domainauth.State, kind apiclient.PedidoKind) ([]apiclient.Pedido, error)
	Productos(ctx context.Context, st domainauth.State) ([]apiclient.Producto, error)
	Proveedores(ctx context.Context, st domainauth.State) ([]apiclient.Proveedor, error)
	Sucursales(ctx context.Context, st domainauth.State) ([]apiclient.Sucursal, error)
	Usuarios(ctx context.Context, st domainauth.State) ([]apiclient.Usuario, error)
	CreateUsuario(ctx context.Context, st domainauth.State, in apiclient.CreateUsuarioRequest) (apiclient.Usuario, error)
}

var _ CatalogServiceInterface = (*service.CatalogService)(nil)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T       *TemplateRenderer
	Guard   *Guard
	Catalog CatalogServiceInterface
	IsDev   bool // Development mode flag for enhanced error reporting
	Logger  *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger(r *http.Request) *slog.Logger {
	var fallback *slog.Logger
	if h != nil {
		fallback = h.Logger
	}
	return LoggerFromContext(r.Context(), fallback)
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// metaFor derives page metadata from a route.
func metaFor(route routing.Route) PageMeta {
	return PageMeta{
		Title:       route.Title + " - Almacén",
		PageTitle:   route.Title,
		CurrentPage: route.Name,
	}
}

// buildLayout constructs shared layout metadata from the request/session context.
// Navigation links are filtered through the guard so a role never sees a
// link it cannot open.
func (h *UIHandlers) buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
	}

	session := GetSessionFromContext(r.Context())
	if session == nil {
		return layout
	}
	state := session.State()
	layout.IsAuthenticated = state.HasToken()
	layout.IsGeneralAdmin = state.Role.IsGeneralAdmin()
	layout.User = &viewmodel.User{Name: session.DisplayName(), Role: string(session.Role)}
	if h.Guard != nil {
		for _, route := range h.Guard.Routes().Visible(state) {
			layout.Nav = append(layout.Nav, viewmodel.NavLink{
				Path:   route.Path,
				Title:  route.Title,
				Active: isActive(route, meta.CurrentPage, r.URL.Path),
			})
		}
	}
	return layout
}

func isActive(route routing.Route, currentPage, path string) bool {
	if route.Name == currentPage {
		return true
	}
	return route.Path != "/" && strings.HasPrefix(path, route.Path+"/")
}

// basePageData constructs the common page data map with user context.
func (h *UIHandlers) basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := h.buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"IsGeneralAdmin":  layout.IsGeneralAdmin,
		"Nav":             layout.Nav,
		"CSRFToken":       layout.CSRFToken,
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := h.basePageData(r, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			h.handleBackendError(w, r, err)
			return
		}
	}
	h.render(w, r, view{Data: data})
}

// render writes a full page, or only the content area for htmx requests.
func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, v view) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, v); err != nil {
			h.logAndRenderTemplateError(w, r, err)
		}
		return
	}
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	if err := h.T.RenderPartial(w, v); err != nil {
		h.logAndRenderTemplateError(w, r, err)
	}
}

// handleBackendError turns a failed page load into a response. A rejected
// token ends the local session and sends the user to log in again.
func (h *UIHandlers) handleBackendError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsUnauthorized(err) {
		h.logger(r).InfoContext(r.Context(), "backend rejected session token", slog.String("path", r.URL.Path))
		if h.Guard != nil {
			h.Guard.Invalidate(w, r)
			Redirect(w, r, loginRedirectURL(h.Guard.Routes().PathOf(routing.NameLogin), r))
			return
		}
	}

	if errors.Is(err, context.Canceled) {
		return
	}
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger(r).ErrorContext(r.Context(), "page data load failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	h.renderErrorPage(w, r, errorPage{Status: status, Message: userMessage(err)})
}

// errorPage describes the content of the error template.
type errorPage struct {
	Status  int
	Message string
}

func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, p errorPage) {
	data := h.basePageData(r, PageMeta{
		Title:       "Error - Almacén",
		PageTitle:   "Error",
		CurrentPage: PageError,
	})
	data["Code"] = strconv.Itoa(p.Status)
	data["Message"] = p.Message
	data["ShowLogin"] = GetSessionFromContext(r.Context()) == nil
	data["RedirectURI"] = safeRedirectPath(r.URL.RequestURI())

	v := view{Status: p.Status, Data: data}
	if WantsPartial(r) {
		if err := h.T.RenderPartial(w, v); err != nil {
			http.Error(w, p.Message, p.Status)
		}
		return
	}
	if err := h.T.RenderError(w, v); err != nil {
		http.Error(w, p.Message, p.Status)
	}
}

// userMessage returns text safe to show to the user.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Ocurrió un error inesperado. Intente nuevamente."
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger(r).ErrorContext(r.Context(), "template rendering failed",
		slog.Any("error", err),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
	)
	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<pre class="template-error">` + html.EscapeString(err.Error()) + `</pre>`))
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// pageOpts represents pagination options for list views.
type pageOpts struct {
	Page     int
	PageSize int
}

// getPageParams parses pagination params from URL query with sane defaults.
func getPageParams(q url.Values) pageOpts {
	p := pageOpts{Page: 1, PageSize: defaultPageSize}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 && n <= 100 {
		p.PageSize = n
	}
	return p
}

// paginate slices one page out of a fully loaded list. The backend returns
// whole collections, so paging happens here.
func paginate[T any](items []T, p pageOpts, link func(page int) string) ([]T, viewmodel.Pagination) {
	total := len(items)
	start := total
	if p.Page-1 <= total/p.PageSize {
		start = min(max((p.Page-1)*p.PageSize, 0), total)
	}
	end := min(start+p.PageSize, total)

	pg := viewmodel.Pagination{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: total,
		HasPrev:    p.Page > 1,
		HasNext:    end < total,
	}
	if end > start {
		pg.StartIndex = start + 1
		pg.EndIndex = end
	}
	if pg.HasPrev {
		pg.PrevURL = link(p.Page - 1)
	}
	if pg.HasNext {
		pg.NextURL = link(p.Page + 1)
	}
	return items[start:end], pg
}

// buildPageURL returns a URL with page and page_size set, preserving other
// non-empty query params.
func buildPageURL(basePath string, q url.Values, p pageOpts) string {
	qq := make(url.Values, len(q))
	for k, v := range q {
		if strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		tmp := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			qq[k] = tmp
		}
	}
	qq.Set("page", strconv.Itoa(p.Page))
	qq.Set("page_size", strconv.Itoa(p.PageSize))
	return basePath + "?" + qq.Encode()
}
