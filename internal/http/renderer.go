package httpx

import (
	"bytes"
	"errors"
	"html"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	corefuncs "github.com/almacen/almacen-ui/internal/http/templates/core"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses "*.tmpl", "pages/*.tmpl" and "partials/*.tmpl"
// from cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := &TemplateRenderer{logger: logger}
	var t *template.Template
	funcs := corefuncs.Funcs(corefuncs.Deps{Template: &t, ContentTemplateFor: ContentTemplateFor})
	t, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// view is one rendered response: the page data and the status to send.
type view struct {
	Status int
	Data   map[string]any
}

func (v view) status() int {
	if v.Status == 0 {
		return http.StatusOK
	}
	return v.Status
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, v view) error {
	return r.renderTemplate(w, "layout", v)
}

// RenderPartial renders the content area for htmx swaps, preceded by a
// <title> element and an out-of-band header update.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, v view) error {
	var buf bytes.Buffer
	title, _ := v.Data["Title"].(string)
	pageTitle, _ := v.Data["PageTitle"].(string)
	page, _ := v.Data["CurrentPage"].(string)

	buf.WriteString(`<title>` + html.EscapeString(title) + `</title>`)
	buf.WriteString(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(pageTitle) + `</h1>`)
	name := ContentTemplateFor(page)
	if err := r.t.ExecuteTemplate(&buf, name, v.Data); err != nil {
		r.logTemplateError(name, err)
		return err
	}
	return r.write(w, v.status(), &buf)
}

// RenderError renders an error page using the error template.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, v view) error {
	return r.renderTemplate(w, "error-layout", v)
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, templateName string, v view) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, v.Data); err != nil {
		r.logTemplateError(templateName, err)
		return err
	}
	return r.write(w, v.status(), &buf)
}

func (r *TemplateRenderer) write(w http.ResponseWriter, status int, buf *bytes.Buffer) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template", slog.Any("error", err))
		return err
	}
	return nil
}

// logTemplateError logs a template execution error with context.
func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
