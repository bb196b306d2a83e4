package routing

// AlmacenRoutes is the page table of the Almacen UI.
func AlmacenRoutes() []Route {
	return []Route{
		{Name: NameLogin, Path: "/login", Title: "Iniciar sesión", Access: AccessPublic},
		{Name: NameHome, Path: "/", Title: "Inicio", Nav: true},
		{Name: NamePedidos, Path: "/pedidos", Title: "Pedidos", RedirectTo: NamePedidosRealizados},
		{Name: NamePedidosRealizados, Path: "/pedidos/realizados", Title: "Pedidos realizados", Nav: true},
		{Name: NamePedidosRecibidos, Path: "/pedidos/recibidos", Title: "Pedidos recibidos", Nav: true},
		{Name: NameProductos, Path: "/productos", Title: "Productos", Nav: true},
		{Name: NameProveedores, Path: "/proveedores", Title: "Proveedores", Nav: true},
		{Name: NameSucursales, Path: "/sucursales", Title: "Sucursales", Nav: true},
		{Name: NameUsuarios, Path: "/usuarios", Title: "Usuarios", Access: AccessGeneralAdmin, Nav: true},
		{Name: NameUsuariosGestion, Path: "/usuarios/gestion", Title: "Gestión de usuarios", Access: AccessGeneralAdmin},
		{Name: NameUsuariosCrear, Path: "/usuarios/crear", Title: "Crear usuario", Access: AccessGeneralAdmin},
	}
}

// DefaultTable returns the validated Almacen route table.
func DefaultTable() *Table {
	return MustNewTable(AlmacenRoutes())
}
