package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/almacen/almacen-ui/internal/apiclient"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	apperrors "github.com/almacen/almacen-ui/internal/errors"
)

// LowStockThreshold marks products whose stock needs attention on the dashboard.
const LowStockThreshold = 10

const minPasswordLength = 8

// CatalogServiceOptions groups dependencies for CatalogService.
type CatalogServiceOptions struct {
	API    *apiclient.Client // Required
	Logger *slog.Logger      // Optional
}

// CatalogService loads screen data from the backend on behalf of a session.
// Every call builds its request options from the caller's State.
type CatalogService struct {
	api    *apiclient.Client
	logger *slog.Logger
}

func NewCatalogService(opts CatalogServiceOptions) *CatalogService {
	if opts.API == nil {
		panic("CatalogService requires an API client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{api: opts.API, logger: logger.With("component", "catalog_service")}
}

// backendError classifies a backend failure. A rejected token surfaces as
// unauthorized so the HTTP layer can drop the session.
func backendError(err error, op string) error {
	if err == nil {
		return nil
	}
	if apiclient.IsUnauthorized(err) {
		return apperrors.Wrapf(err, apperrors.ErrCodeUnauthorized, "%s: sesión inválida", op)
	}
	switch apiclient.StatusCode(err) {
	case http.StatusForbidden:
		return apperrors.Wrapf(err, apperrors.ErrCodeForbidden, "%s: acceso denegado", op)
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, backendMessage(err, op))
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, op)
}

func backendMessage(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func (s *CatalogService) Pedidos(ctx context.Context, st domainauth.State, kind apiclient.PedidoKind) ([]apiclient.Pedido, error) {
	out, err := s.api.ListPedidos(ctx, apiclient.BuildRequestOptions(st), kind)
	return out, backendError(err, "listar pedidos "+string(kind))
}

func (s *CatalogService) Productos(ctx context.Context, st domainauth.State) ([]apiclient.Producto, error) {
	out, err := s.api.ListProductos(ctx, apiclient.BuildRequestOptions(st))
	return out, backendError(err, "listar productos")
}

func (s *CatalogService) Proveedores(ctx context.Context, st domainauth.State) ([]apiclient.Proveedor, error) {
	out, err := s.api.ListProveedores(ctx, apiclient.BuildRequestOptions(st))
	return out, backendError(err, "listar proveedores")
}

func (s *CatalogService) Sucursales(ctx context.Context, st domainauth.State) ([]apiclient.Sucursal, error) {
	out, err := s.api.ListSucursales(ctx, apiclient.BuildRequestOptions(st))
	return out, backendError(err, "listar sucursales")
}

func (s *CatalogService) Usuarios(ctx context.Context, st domainauth.State) ([]apiclient.Usuario, error) {
	out, err := s.api.ListUsuarios(ctx, apiclient.BuildRequestOptions(st))
	return out, backendError(err, "listar usuarios")
}

// CreateUsuario validates the form and creates the user in the backend.
func (s *CatalogService) CreateUsuario(ctx context.Context, st domainauth.State, in apiclient.CreateUsuarioRequest) (apiclient.Usuario, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Email = strings.TrimSpace(in.Email)
	in.Rol = strings.TrimSpace(in.Rol)
	if err := validateUsuario(in); err != nil {
		return apiclient.Usuario{}, err
	}

	out, err := s.api.CreateUsuario(ctx, apiclient.BuildRequestOptions(st), in)
	if err != nil {
		return apiclient.Usuario{}, backendError(err, "crear usuario")
	}
	if out.Username == "" {
		out.Username = in.Username
		out.Nombre = in.Nombre
		out.Rol = in.Rol
	}
	s.logger.InfoContext(ctx, "usuario creado", slog.String("username", out.Username), slog.String("rol", out.Rol))
	return out, nil
}

func validateUsuario(in apiclient.CreateUsuarioRequest) error {
	switch {
	case in.Username == "":
		return apperrors.ValidationField("username", "el usuario es obligatorio")
	case strings.ContainsAny(in.Username, " \t"):
		return apperrors.ValidationField("username", "el usuario no puede contener espacios")
	case in.Nombre == "":
		return apperrors.ValidationField("nombre", "el nombre es obligatorio")
	case len(in.Password) < minPasswordLength:
		return apperrors.ValidationField("password", fmt.Sprintf("la contraseña debe tener al menos %d caracteres", minPasswordLength))
	case !knownRole(domainauth.Role(in.Rol)):
		return apperrors.ValidationField("rol", "rol desconocido")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return apperrors.ValidationField("email", "correo inválido")
		}
	}
	return nil
}

func knownRole(r domainauth.Role) bool {
	switch r {
	case domainauth.RoleGeneralAdmin, domainauth.RoleBranchAdmin, domainauth.RoleEmployee:
		return true
	}
	return false
}

// Dashboard is the summary shown on the home page.
type Dashboard struct {
	Productos         int
	ProductosBajos    []apiclient.Producto
	Proveedores       int
	Sucursales        int
	PedidosRealizados int
	PedidosRecibidos  int
	PedidosPendientes int
}

// Dashboard loads the home counts concurrently. The first failure cancels
// the remaining calls.
func (s *CatalogService) Dashboard(ctx context.Context, st domainauth.State) (Dashboard, error) {
	opts := apiclient.BuildRequestOptions(st)
	var (
		d          Dashboard
		productos  []apiclient.Producto
		realizados []apiclient.Pedido
		recibidos  []apiclient.Pedido
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		productos, err = s.api.ListProductos(gctx, opts)
		return backendError(err, "listar productos")
	})
	g.Go(func() error {
		out, err := s.api.ListProveedores(gctx, opts)
		d.Proveedores = len(out)
		return backendError(err, "listar proveedores")
	})
	g.Go(func() error {
		out, err := s.api.ListSucursales(gctx, opts)
		d.Sucursales = len(out)
		return backendError(err, "listar sucursales")
	})
	g.Go(func() error {
		var err error
		realizados, err = s.api.ListPedidos(gctx, opts, apiclient.PedidoRealizado)
		return backendError(err, "listar pedidos realizados")
	})
	g.Go(func() error {
		var err error
		recibidos, err = s.api.ListPedidos(gctx, opts, apiclient.PedidoRecibido)
		return backendError(err, "listar pedidos recibidos")
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Productos = len(productos)
	for _, p := range productos {
		if p.Stock < LowStockThreshold {
			d.ProductosBajos = append(d.ProductosBajos, p)
		}
	}
	d.PedidosRealizados = len(realizados)
	d.PedidosRecibidos = len(recibidos)
	for _, p := range recibidos {
		if strings.EqualFold(p.Estado, "pendiente") {
			d.PedidosPendientes++
		}
	}
	return d, nil
}
