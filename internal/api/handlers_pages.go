package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/sydlexius/sprout/internal/api/middleware"
	"github.com/sydlexius/sprout/internal/pages"
	"github.com/sydlexius/sprout/internal/user"
	"github.com/sydlexius/sprout/web/templates"
)

type pageFunc func(ctx context.Context, s *pages.Session) (pages.Result, error)

// assets returns cache-busted asset paths for templates.
func (r *Router) assets() templates.AssetPaths {
	a := templates.AssetPaths{
		BasePath: r.basePath,
		CSS:      r.staticAssets.Path("/css/styles.css"),
		LoginJS:  r.staticAssets.Path("/js/login.js"),
	}
	// Icons exist only after tools/genfavicon has run.
	if r.staticAssets.Hash(faviconPath) != "" {
		a.Icon = r.staticAssets.Path(faviconPath)
	}
	return a
}

const faviconPath = "/img/favicon-32x32.png"

// page adapts a page function to HTTP: it builds the session from the
// request identity, runs the page and carries out the result.
func (r *Router) page(fn pageFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		s, err := r.session(req)
		if err != nil {
			r.pageError(w, req, err)
			return
		}
		res, err := fn(req.Context(), s)
		if err != nil {
			r.pageError(w, req, err)
			return
		}
		r.respond(w, req, res)
	}
}

// session resolves the request identity. A session whose user has since
// been deleted is treated as anonymous.
func (r *Router) session(req *http.Request) (*pages.Session, error) {
	s := pages.NewSession("", "")
	s.Values[pages.KeyCSRFToken] = middleware.CSRFTokenFromContext(req.Context())

	userID := middleware.UserIDFromContext(req.Context())
	if userID == "" {
		return s, nil
	}
	u, err := r.userService.GetByID(req.Context(), userID)
	if errors.Is(err, user.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	s.UserID = u.ID
	s.Username = u.Username
	s.Values[pages.KeyUsername] = u.Username
	return s, nil
}

func (r *Router) respond(w http.ResponseWriter, req *http.Request, res pages.Result) {
	if res.IsRedirect() {
		http.Redirect(w, req, r.basePath+res.RedirectURL, http.StatusFound)
		return
	}
	component, err := templates.Render(res.Template, r.assets(), res.Values)
	if err != nil {
		r.pageError(w, req, err)
		return
	}

	var buf bytes.Buffer
	if err := component.Render(req.Context(), &buf); err != nil {
		r.pageError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (r *Router) pageError(w http.ResponseWriter, req *http.Request, err error) {
	r.logger.Error("page failed", "path", req.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (r *Router) dashboardPage(ctx context.Context, s *pages.Session) (pages.Result, error) {
	if s.UserID == "" {
		return pages.Redirect("/login"), nil
	}
	exps, err := r.explorationService.List(ctx)
	if err != nil {
		return pages.Result{}, err
	}
	s.Values[templates.KeyExplorations] = exps
	return pages.Render(pages.TemplateDashboard, s.Values), nil
}

func (r *Router) loginPage(_ context.Context, s *pages.Session) (pages.Result, error) {
	if s.UserID != "" {
		return pages.Redirect(pages.DashboardURL), nil
	}
	return pages.Render(pages.TemplateLogin, s.Values), nil
}
