package apiclient

import "time"

// PedidoKind selects which side of an order the current user is on.
type PedidoKind string

const (
	PedidoRealizado PedidoKind = "realizados"
	PedidoRecibido  PedidoKind = "recibidos"
)

// Pedido is an order placed by or received at a branch.
type Pedido struct {
	ID          int64        `json:"id"`
	Numero      string       `json:"numero,omitempty"`
	Estado      string       `json:"estado"`
	Origen      string       `json:"sucursal_origen,omitempty"`
	Destino     string       `json:"sucursal_destino,omitempty"`
	Proveedor   string       `json:"proveedor,omitempty"`
	Fecha       time.Time    `json:"fecha"`
	Total       float64      `json:"total"`
	Lineas      []PedidoItem `json:"items,omitempty"`
	Observacion string       `json:"observacion,omitempty"`
}

// PedidoItem is one product line of an order.
type PedidoItem struct {
	ProductoID int64   `json:"producto_id"`
	Producto   string  `json:"producto"`
	Cantidad   int     `json:"cantidad"`
	Precio     float64 `json:"precio"`
}

// Producto is a catalogue item.
type Producto struct {
	ID        int64   `json:"id"`
	Codigo    string  `json:"codigo"`
	Nombre    string  `json:"nombre"`
	Categoria string  `json:"categoria,omitempty"`
	Precio    float64 `json:"precio"`
	Stock     int     `json:"stock"`
}

// Proveedor is a supplier.
type Proveedor struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	RUC      string `json:"ruc,omitempty"`
	Telefono string `json:"telefono,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Sucursal is a branch.
type Sucursal struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion,omitempty"`
	Ciudad    string `json:"ciudad,omitempty"`
}

// Usuario is an application user as managed by general administrators.
type Usuario struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Email    string `json:"email,omitempty"`
	Rol      string `json:"rol"`
	Sucursal string `json:"sucursal,omitempty"`
	Activo   bool   `json:"activo"`
}

// CreateUsuarioRequest is the payload for creating a user.
type CreateUsuarioRequest struct {
	Username   string `json:"username"`
	Nombre     string `json:"nombre"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password"`
	Rol        string `json:"rol"`
	SucursalID int64  `json:"sucursal_id,omitempty"`
}

// LoginRequest carries credentials for the backend login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is what the server keeps from a successful login.
type LoginResult struct {
	Token string
	Role  string
	Name  string
}
