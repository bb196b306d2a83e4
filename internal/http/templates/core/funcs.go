package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
)

// DateLayout is the day-first layout used for order dates.
const DateLayout = "02/01/2006 15:04"

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers shared by every page.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"formatDate":   FormatDate,
		"formatNumber": FormatNumber,
		"formatMoney":  FormatMoney,
		"roleLabel":    RoleLabel,
		"estadoClass":  EstadoClass,
		"add":          func(a, b int) int { return a + b },
		"lowStock":     func(stock, threshold int) bool { return stock < threshold },
	}

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - output of our own html/template set; values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}
	return funcs
}

// FormatDate renders t in local time, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateLayout)
}

// FormatNumber formats integers with "." as the thousands separator.
func FormatNumber(v any) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case int32:
		n = int64(x)
	default:
		return fmt.Sprint(v)
	}
	neg := n < 0
	if neg {
		n = -n
	}
	s := groupThousands(strconv.FormatInt(n, 10), '.')
	if neg {
		return "-" + s
	}
	return s
}

// FormatMoney renders an amount with two decimals, "." grouping and "," as
// the decimal mark, e.g. 1234.5 -> "$ 1.234,50".
func FormatMoney(amount float64) string {
	neg := amount < 0
	cents := int64(math.Round(math.Abs(amount) * 100))
	whole := groupThousands(strconv.FormatInt(cents/100, 10), '.')
	out := fmt.Sprintf("$ %s,%02d", whole, cents%100)
	if neg {
		return "-" + out
	}
	return out
}

func groupThousands(s string, sep byte) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + (len(s)-1)/3)

	prefix := len(s) % 3
	if prefix == 0 {
		prefix = 3
	}
	b.WriteString(s[:prefix])
	for i := prefix; i < len(s); i += 3 {
		b.WriteByte(sep)
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// RoleLabel returns the display label for a backend role value.
func RoleLabel(role string) string {
	switch domainauth.Role(role) {
	case domainauth.RoleGeneralAdmin:
		return "Administrador general"
	case domainauth.RoleBranchAdmin:
		return "Administrador de sucursal"
	case domainauth.RoleEmployee:
		return "Empleado"
	case "":
		return "Sin rol"
	default:
		return role
	}
}

// EstadoClass maps an order status to a badge class.
func EstadoClass(estado string) string {
	switch strings.ToLower(strings.TrimSpace(estado)) {
	case "pendiente":
		return "badge-warning"
	case "enviado", "en_transito", "en tránsito":
		return "badge-info"
	case "recibido", "completado", "entregado":
		return "badge-success"
	case "cancelado", "rechazado":
		return "badge-danger"
	default:
		return "badge-light"
	}
}
