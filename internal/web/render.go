package web

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hpungsan/attune/internal/catalog"
	"github.com/hpungsan/attune/internal/errors"
	"github.com/hpungsan/attune/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	// Theme drives the layout class and color tokens of the page.
	Theme catalog.ThemeConfig
	// RefreshSeconds, when positive, reloads the page after that many seconds.
	RefreshSeconds int
}

// HomePageData is the template data for the landing page.
type HomePageData struct {
	PageData
	State          *ops.StateOutput
	ShowOnboarding bool
}

// OnboardingPageData is the template data for the onboarding flow.
type OnboardingPageData struct {
	PageData
	State *ops.StateOutput
	Total int
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	log       *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, log *zap.Logger) *Renderer {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"home":       "home.html",
		"onboarding": "onboarding.html",
		"error":      "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		log:       log,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("template execution error", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var aErr *errors.AttuneError
	if !stderrors.As(err, &aErr) {
		aErr = errors.NewInternal(err)
	}
	if aErr.Status >= 500 {
		r.log.Error("request failed", zap.String("code", string(aErr.Code)), zap.String("message", aErr.Message))
	}

	if wantsJSON(req) {
		renderJSON(w, aErr.Status, map[string]any{
			"error": map[string]any{
				"code":    string(aErr.Code),
				"message": aErr.Message,
				"status":  aErr.Status,
			},
		})
		return
	}

	r.renderPageStatus(w, aErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", aErr.Status),
			Version: r.version,
			Theme:   catalog.ConfigFor(catalog.DefaultTheme),
		},
		StatusCode: aErr.Status,
		Message:    aErr.Message,
	})
}

// wantsJSON reports whether the client asked for JSON, or called an /api/ route.
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
