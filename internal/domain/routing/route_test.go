package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_Contents(t *testing.T) {
	table := DefaultTable()

	expected := map[string]struct {
		name   string
		access AccessLevel
	}{
		"/login":              {NameLogin, AccessPublic},
		"/":                   {NameHome, AccessAuthenticated},
		"/pedidos":            {NamePedidos, AccessAuthenticated},
		"/pedidos/realizados": {NamePedidosRealizados, AccessAuthenticated},
		"/pedidos/recibidos":  {NamePedidosRecibidos, AccessAuthenticated},
		"/productos":          {NameProductos, AccessAuthenticated},
		"/proveedores":        {NameProveedores, AccessAuthenticated},
		"/sucursales":         {NameSucursales, AccessAuthenticated},
		"/usuarios":           {NameUsuarios, AccessGeneralAdmin},
		"/usuarios/gestion":   {NameUsuariosGestion, AccessGeneralAdmin},
		"/usuarios/crear":     {NameUsuariosCrear, AccessGeneralAdmin},
	}

	require.Len(t, table.Routes(), len(expected))
	for path, want := range expected {
		r, ok := table.ByPath(path)
		require.True(t, ok, path)
		assert.Equal(t, want.name, r.Name, path)
		assert.Equal(t, want.access, r.Access, path)
	}

	pedidos, _ := table.ByName(NamePedidos)
	assert.Equal(t, NamePedidosRealizados, pedidos.RedirectTo)
	assert.Equal(t, "/pedidos/realizados", table.PathOf(pedidos.RedirectTo))
}

func TestTable_Lookup(t *testing.T) {
	table := DefaultTable()

	r, ok := table.ByPath("/productos/")
	require.True(t, ok)
	assert.Equal(t, NameProductos, r.Name)

	r, ok = table.ByPath("/")
	require.True(t, ok)
	assert.Equal(t, NameHome, r.Name)

	_, ok = table.ByPath("/nope")
	assert.False(t, ok)

	_, ok = table.ByName("nope")
	assert.False(t, ok)
	assert.Equal(t, "/", table.PathOf("nope"))

	assert.Equal(t, "/login", table.Login().Path)
	assert.Equal(t, "/", table.Home().Path)
}

func TestNewTable_Validation(t *testing.T) {
	base := func() []Route {
		return []Route{
			{Name: NameLogin, Path: "/login", Access: AccessPublic},
			{Name: NameHome, Path: "/"},
		}
	}

	tests := []struct {
		name    string
		mutate  func([]Route) []Route
		wantErr error
	}{
		{"valid", func(r []Route) []Route { return r }, nil},
		{"duplicate name", func(r []Route) []Route { return append(r, Route{Name: NameHome, Path: "/x"}) }, ErrDuplicateName},
		{"duplicate path", func(r []Route) []Route { return append(r, Route{Name: "x", Path: "/"}) }, ErrDuplicatePath},
		{"unknown redirect", func(r []Route) []Route { return append(r, Route{Name: "x", Path: "/x", RedirectTo: "y"}) }, ErrUnknownRedirect},
		{"missing login", func(r []Route) []Route { return r[1:] }, ErrMissingRoute},
		{"relative path", func(r []Route) []Route { return append(r, Route{Name: "x", Path: "x"}) }, ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.mutate(base()))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTable_RoutesIsCopy(t *testing.T) {
	table := DefaultTable()
	rs := table.Routes()
	rs[0].Path = "/mutated"
	assert.Equal(t, "/login", table.Login().Path)
}

func TestAccessLevel_String(t *testing.T) {
	assert.Equal(t, "authenticated", AccessAuthenticated.String())
	assert.Equal(t, "public", AccessPublic.String())
	assert.Equal(t, "general-admin", AccessGeneralAdmin.String())
	assert.Equal(t, "AccessLevel(9)", AccessLevel(9).String())
}
