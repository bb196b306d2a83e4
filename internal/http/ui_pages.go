package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/almacen/almacen-ui/internal/apiclient"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/domain/routing"
	apperrors "github.com/almacen/almacen-ui/internal/errors"
	"github.com/almacen/almacen-ui/internal/service"
)

func (h *UIHandlers) route(name string) routing.Route {
	r, _ := h.Guard.Routes().ByName(name)
	return r
}

// Home renders the dashboard.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	st := StateFromContext(r.Context())
	h.Page(w, r, PageSpec{
		Meta: metaFor(h.route(routing.NameHome)),
		Fetch: func(ctx context.Context, data map[string]any) error {
			d, err := h.Catalog.Dashboard(ctx, st)
			if err != nil {
				return err
			}
			data["Dashboard"] = d
			data["LowStockThreshold"] = service.LowStockThreshold
			return nil
		},
	})
}

// Forward sends the user on to the route named by the current route's
// RedirectTo, keeping the query string.
func (h *UIHandlers) Forward(name string) http.HandlerFunc {
	from := h.route(name)
	target := h.Guard.Routes().PathOf(from.RedirectTo)
	return func(w http.ResponseWriter, r *http.Request) {
		dest := target
		if r.URL.RawQuery != "" {
			dest += "?" + r.URL.RawQuery
		}
		Redirect(w, r, dest)
	}
}

// Pedidos lists orders of one kind.
func (h *UIHandlers) Pedidos(name string, kind apiclient.PedidoKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := h.route(name)
		st := StateFromContext(r.Context())
		estado := strings.TrimSpace(r.URL.Query().Get("estado"))
		h.Page(w, r, PageSpec{
			Meta: metaFor(route),
			Fetch: func(ctx context.Context, data map[string]any) error {
				items, err := h.Catalog.Pedidos(ctx, st, kind)
				if err != nil {
					return err
				}
				if estado != "" {
					items = filterPedidos(items, estado)
				}
				data["Kind"] = string(kind)
				data["Estado"] = estado
				setPage(r, data, route.Path, items)
				return nil
			},
		})
	}
}

func filterPedidos(items []apiclient.Pedido, estado string) []apiclient.Pedido {
	out := make([]apiclient.Pedido, 0, len(items))
	for _, p := range items {
		if strings.EqualFold(p.Estado, estado) {
			out = append(out, p)
		}
	}
	return out
}

// Productos lists the catalogue with an optional name/code search.
func (h *UIHandlers) Productos(w http.ResponseWriter, r *http.Request) {
	route := h.route(routing.NameProductos)
	st := StateFromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	h.Page(w, r, PageSpec{
		Meta: metaFor(route),
		Fetch: func(ctx context.Context, data map[string]any) error {
			items, err := h.Catalog.Productos(ctx, st)
			if err != nil {
				return err
			}
			if query != "" {
				items = searchProductos(items, query)
			}
			data["Query"] = query
			data["LowStockThreshold"] = service.LowStockThreshold
			setPage(r, data, route.Path, items)
			return nil
		},
	})
}

func searchProductos(items []apiclient.Producto, query string) []apiclient.Producto {
	q := strings.ToLower(query)
	out := make([]apiclient.Producto, 0, len(items))
	for _, p := range items {
		if strings.Contains(strings.ToLower(p.Nombre), q) || strings.Contains(strings.ToLower(p.Codigo), q) {
			out = append(out, p)
		}
	}
	return out
}

// Proveedores lists suppliers.
func (h *UIHandlers) Proveedores(w http.ResponseWriter, r *http.Request) {
	route := h.route(routing.NameProveedores)
	st := StateFromContext(r.Context())
	h.Page(w, r, PageSpec{
		Meta: metaFor(route),
		Fetch: func(ctx context.Context, data map[string]any) error {
			items, err := h.Catalog.Proveedores(ctx, st)
			if err != nil {
				return err
			}
			setPage(r, data, route.Path, items)
			return nil
		},
	})
}

// Sucursales lists branches.
func (h *UIHandlers) Sucursales(w http.ResponseWriter, r *http.Request) {
	route := h.route(routing.NameSucursales)
	st := StateFromContext(r.Context())
	h.Page(w, r, PageSpec{
		Meta: metaFor(route),
		Fetch: func(ctx context.Context, data map[string]any) error {
			items, err := h.Catalog.Sucursales(ctx, st)
			if err != nil {
				return err
			}
			setPage(r, data, route.Path, items)
			return nil
		},
	})
}

// Usuarios is the user administration landing page.
func (h *UIHandlers) Usuarios(w http.ResponseWriter, r *http.Request) {
	data := h.basePageData(r, metaFor(h.route(routing.NameUsuarios)))
	data["GestionPath"] = h.Guard.Routes().PathOf(routing.NameUsuariosGestion)
	data["CrearPath"] = h.Guard.Routes().PathOf(routing.NameUsuariosCrear)
	h.render(w, r, view{Data: data})
}

// UsuariosGestion lists application users.
func (h *UIHandlers) UsuariosGestion(w http.ResponseWriter, r *http.Request) {
	route := h.route(routing.NameUsuariosGestion)
	st := StateFromContext(r.Context())
	h.Page(w, r, PageSpec{
		Meta: metaFor(route),
		Fetch: func(ctx context.Context, data map[string]any) error {
			items, err := h.Catalog.Usuarios(ctx, st)
			if err != nil {
				return err
			}
			data["Creado"] = r.URL.Query().Get("creado")
			data["CrearPath"] = h.Guard.Routes().PathOf(routing.NameUsuariosCrear)
			setPage(r, data, route.Path, items)
			return nil
		},
	})
}

// usuarioForm is the create-user form state echoed back on errors.
type usuarioForm struct {
	Username   string
	Nombre     string
	Email      string
	Rol        string
	SucursalID string
}

// UsuariosCrearForm renders the empty create-user form.
func (h *UIHandlers) UsuariosCrearForm(w http.ResponseWriter, r *http.Request) {
	h.renderUsuarioForm(w, r, usuarioFormState{Form: usuarioForm{Rol: string(domainauth.RoleEmployee)}})
}

// UsuariosCrearSubmit creates a user from the posted form.
func (h *UIHandlers) UsuariosCrearSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderErrorPage(w, r, errorPage{Status: http.StatusBadRequest, Message: "Formulario inválido."})
		return
	}
	form := usuarioForm{
		Username:   r.PostFormValue("username"),
		Nombre:     r.PostFormValue("nombre"),
		Email:      r.PostFormValue("email"),
		Rol:        r.PostFormValue("rol"),
		SucursalID: strings.TrimSpace(r.PostFormValue("sucursal_id")),
	}
	req := apiclient.CreateUsuarioRequest{
		Username: form.Username,
		Nombre:   form.Nombre,
		Email:    form.Email,
		Password: r.PostFormValue("password"),
		Rol:      form.Rol,
	}
	if form.SucursalID != "" {
		id, err := strconv.ParseInt(form.SucursalID, 10, 64)
		if err != nil || id <= 0 {
			h.renderUsuarioForm(w, r, usuarioFormState{
				Form:   form,
				Status: http.StatusUnprocessableEntity,
				Err:    apperrors.ValidationField("sucursal_id", "sucursal inválida"),
			})
			return
		}
		req.SucursalID = id
	}

	created, err := h.Catalog.CreateUsuario(r.Context(), StateFromContext(r.Context()), req)
	switch {
	case err == nil:
		q := url.Values{}
		q.Set("creado", created.Username)
		Redirect(w, r, h.Guard.Routes().PathOf(routing.NameUsuariosGestion)+"?"+q.Encode())
	case apperrors.IsValidation(err):
		h.renderUsuarioForm(w, r, usuarioFormState{Form: form, Status: http.StatusUnprocessableEntity, Err: err})
	default:
		h.handleBackendError(w, r, err)
	}
}

// usuarioFormState groups what the create-user form renders with.
type usuarioFormState struct {
	Form   usuarioForm
	Status int
	Err    error
}

func (h *UIHandlers) renderUsuarioForm(w http.ResponseWriter, r *http.Request, s usuarioFormState) {
	st := StateFromContext(r.Context())
	sucursales, err := h.Catalog.Sucursales(r.Context(), st)
	if err != nil {
		h.handleBackendError(w, r, err)
		return
	}

	data := h.basePageData(r, metaFor(h.route(routing.NameUsuariosCrear)))
	data["Form"] = s.Form
	data["Sucursales"] = sucursales
	data["Roles"] = []string{string(domainauth.RoleEmployee), string(domainauth.RoleBranchAdmin), string(domainauth.RoleGeneralAdmin)}
	errs := map[string]string{}
	if s.Err != nil {
		if field := apperrors.GetField(s.Err); field != "" {
			errs[field] = userMessage(s.Err)
		}
		data["ErrorMessage"] = "Corrija los errores indicados."
		if len(errs) == 0 {
			data["ErrorMessage"] = userMessage(s.Err)
		}
	}
	data["Errors"] = errs
	h.render(w, r, view{Status: s.Status, Data: data})
}

// setPage paginates items into data["Items"] and data["Pagination"].
func setPage[T any](r *http.Request, data map[string]any, basePath string, items []T) {
	q := r.URL.Query()
	p := getPageParams(q)
	pageItems, pg := paginate(items, p, func(page int) string {
		return buildPageURL(basePath, q, pageOpts{Page: page, PageSize: p.PageSize})
	})
	data["Items"] = pageItems
	data["Pagination"] = pg
}
