package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/brizzai/auto-eda/internal/auth"
	authmw "github.com/brizzai/auto-eda/internal/auth/middleware"
	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/dataset"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/brizzai/auto-eda/internal/metrics"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

// Page templates, each executed through the shared layout
const (
	pageLogin    = "login.html"
	pageHome     = "home.html"
	pageProfiler = "profiler.html"
)

// Pages renders the dashboard pages
type Pages struct {
	templates  map[string]*template.Template
	controller *auth.Controller
	catalog    *dataset.Catalog
	metrics    *metrics.Metrics
	profiler   config.ProfilerConfig
}

// pageData is the view model shared by every page
type pageData struct {
	Title    string
	Nav      string
	Identity *auth.DisplayIdentity
	Login    *loginView
	Profiler *profilerView
}

type loginView struct {
	Link    string
	Message string
}

// NewPages parses the embedded templates
func NewPages(cfg *config.Config, controller *auth.Controller, catalog *dataset.Catalog, m *metrics.Metrics) (*Pages, error) {
	funcs := template.FuncMap{
		"add":   func(a, b int) int { return a + b },
		"limit": formatLimit,
	}

	base, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	templates := make(map[string]*template.Template)
	for _, page := range []string{pageLogin, pageHome, pageProfiler} {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout: %w", err)
		}
		tmpl, err := clone.ParseFS(templatesFS, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	return &Pages{
		templates:  templates,
		controller: controller,
		catalog:    catalog,
		metrics:    m,
		profiler:   cfg.Profiler,
	}, nil
}

// RenderLogin shows the sign-in page with link and the outcome of the last attempt
func (p *Pages) RenderLogin(w http.ResponseWriter, _ *http.Request, link string, err error) {
	view := &loginView{Link: link}
	switch {
	case err == nil:
	case errors.Is(err, authmw.ErrProviderDenied):
		view.Message = "Sign-in was cancelled. You can try again below."
	default:
		view.Message = auth.UserMessage(err)
	}

	w.Header().Set("Cache-Control", "no-store")
	p.render(w, pageLogin, &pageData{Title: "Login required", Login: view})
}

// displayIdentity resolves the signed-in user for the sidebar. An identity
// that cannot be displayed ends the session and shows the sign-in page.
func (p *Pages) displayIdentity(w http.ResponseWriter, r *http.Request) (*auth.DisplayIdentity, bool) {
	display, err := auth.ResolveDisplayIdentity(authmw.IdentityFromContext(r.Context()))
	if err == nil {
		return &display, true
	}

	logger.Warn("Signed-in identity cannot be displayed", zap.Error(err))
	sess := authmw.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	p.controller.Logout(sess)
	p.RenderLogin(w, r, p.controller.BuildAuthorizationLink(sess), err)
	return nil, false
}

func (p *Pages) handleHome(w http.ResponseWriter, r *http.Request) {
	identity, ok := p.displayIdentity(w, r)
	if !ok {
		return
	}
	p.render(w, pageHome, &pageData{Title: "Home", Nav: "home", Identity: identity})
}

// render executes the page into a buffer so a template error never leaves a
// half-written response
func (p *Pages) render(w http.ResponseWriter, page string, data *pageData) {
	p.renderStatus(w, http.StatusOK, page, data)
}

func (p *Pages) renderStatus(w http.ResponseWriter, status int, page string, data *pageData) {
	tmpl, ok := p.templates[page]
	if !ok {
		logger.Error("Unknown page template", zap.String("page", page))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error("Failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("Failed to write page", zap.String("page", page), zap.Error(err))
	}
}

// formatLimit renders an upload limit in whole MiB, or KiB below one MiB
func formatLimit(n int64) string {
	if n >= 1<<20 {
		return strconv.FormatInt(n>>20, 10) + " MiB"
	}
	return strconv.FormatInt(n>>10, 10) + " KiB"
}
