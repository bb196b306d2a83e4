package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Backend paths. They start with APIPrefix so the resolver rebinds them.
const (
	PathPedidos     = "/api/pedidos"
	PathProductos   = "/api/productos"
	PathProveedores = "/api/proveedores"
	PathSucursales  = "/api/sucursales"
	PathUsuarios    = "/api/usuarios"
)

// ErrNoToken is returned when a login response carries no token.
var ErrNoToken = errors.New("apiclient: login response has no token")

// LoginExtractor holds the JMESPath expressions applied to a login response.
type LoginExtractor struct {
	TokenExpr string
	RoleExpr  string
	NameExpr  string
}

// Validate compiles each non-empty expression.
func (x LoginExtractor) Validate() error {
	for _, expr := range []string{x.TokenExpr, x.RoleExpr, x.NameExpr} {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("invalid expression %q: %w", expr, err)
		}
	}
	return nil
}

// Extract pulls token, role, and name out of a decoded JSON document.
func (x LoginExtractor) Extract(doc any) (LoginResult, error) {
	var res LoginResult
	var err error
	if res.Token, err = searchString(x.TokenExpr, doc); err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, ErrNoToken
	}
	if res.Role, err = searchString(x.RoleExpr, doc); err != nil {
		return LoginResult{}, err
	}
	if res.Name, err = searchString(x.NameExpr, doc); err != nil {
		return LoginResult{}, err
	}
	return res, nil
}

func searchString(expr string, doc any) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", nil
	}
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return fmt.Sprint(s), nil
	}
}

// Login posts credentials to loginPath and extracts the session fields.
// The request carries only the Accept header; no bearer token exists yet.
func (c *Client) Login(ctx context.Context, loginPath string, in LoginRequest, x LoginExtractor) (LoginResult, error) {
	var doc any
	opts := RequestOptions{Header: http.Header{"Accept": []string{"application/json"}}}
	if err := c.sendJSON(ctx, http.MethodPost, loginPath, opts, in, &doc); err != nil {
		return LoginResult{}, err
	}
	return x.Extract(doc)
}

// ListPedidos returns orders placed by (realizados) or received at (recibidos) the user's branch.
func (c *Client) ListPedidos(ctx context.Context, opts RequestOptions, kind PedidoKind) ([]Pedido, error) {
	var out []Pedido
	if err := c.getJSON(ctx, PathPedidos+"/"+string(kind), opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProductos returns the product catalogue.
func (c *Client) ListProductos(ctx context.Context, opts RequestOptions) ([]Producto, error) {
	var out []Producto
	if err := c.getJSON(ctx, PathProductos, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProveedores returns suppliers.
func (c *Client) ListProveedores(ctx context.Context, opts RequestOptions) ([]Proveedor, error) {
	var out []Proveedor
	if err := c.getJSON(ctx, PathProveedores, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSucursales returns branches.
func (c *Client) ListSucursales(ctx context.Context, opts RequestOptions) ([]Sucursal, error) {
	var out []Sucursal
	if err := c.getJSON(ctx, PathSucursales, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsuarios returns application users.
func (c *Client) ListUsuarios(ctx context.Context, opts RequestOptions) ([]Usuario, error) {
	var out []Usuario
	if err := c.getJSON(ctx, PathUsuarios, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUsuario creates a user and returns the stored record.
func (c *Client) CreateUsuario(ctx context.Context, opts RequestOptions, in CreateUsuarioRequest) (Usuario, error) {
	var out Usuario
	if err := c.sendJSON(ctx, http.MethodPost, PathUsuarios, opts, in, &out); err != nil {
		return Usuario{}, err
	}
	return out, nil
}
