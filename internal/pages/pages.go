// Package pages implements the site's informational pages: splash, about,
// site guidelines and contact. Pages read admin-editable properties on every
// request and return a Result for the HTTP layer to carry out.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/sydlexius/sprout/internal/configprop"
	"github.com/sydlexius/sprout/internal/exploration"
)

// Config reads property values.
type Config interface {
	String(ctx context.Context, p configprop.Property) (string, error)
	List(ctx context.Context, p configprop.Property) ([]string, error)
}

// EditorChecker reports whether a user has registered as an editor.
type EditorChecker interface {
	HasRegisteredAsEditor(ctx context.Context, userID string) (bool, error)
}

// DemoStore finds explorations and reloads bundled demos.
type DemoStore interface {
	Lookup(ctx context.Context, id string) (*exploration.Exploration, error)
	DeleteDemo(ctx context.Context, id string) error
	LoadDemo(ctx context.Context, id string) error
}

// Handlers serves the informational pages.
type Handlers struct {
	config  Config
	editors EditorChecker
	demos   DemoStore
	logger  *slog.Logger

	// bootstrap collapses concurrent splash requests that find the same
	// demo missing into a single delete-and-load.
	bootstrap singleflight.Group
}

// New creates page handlers.
func New(config Config, editors EditorChecker, demos DemoStore, logger *slog.Logger) *Handlers {
	return &Handlers{
		config:  config,
		editors: editors,
		demos:   demos,
		logger:  logger.With(slog.String("component", "pages")),
	}
}

type field struct {
	key  string
	prop configprop.Property
}

// fill copies the current value of each property into v.
func (h *Handlers) fill(ctx context.Context, v Values, fields ...field) error {
	for _, f := range fields {
		s, err := h.config.String(ctx, f.prop)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.prop.Name, err)
		}
		v[f.key] = s
	}
	return nil
}

// Splash renders the landing page. Signed-in editors who are not banned go
// straight to the dashboard. If a splash exploration is configured but not
// stored, the bundled demo with that id is reloaded first.
func (h *Handlers) Splash(ctx context.Context, s *Session) (Result, error) {
	redirect, err := h.sendToDashboard(ctx, s)
	if err != nil {
		return Result{}, err
	}
	if redirect {
		return Redirect(DashboardURL), nil
	}

	expID, err := h.config.String(ctx, SplashPageExplorationID)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", SplashPageExplorationID.Name, err)
	}
	if expID != "" {
		if err := h.ensureDemo(ctx, expID); err != nil {
			return Result{}, err
		}
	}

	err = h.fill(ctx, s.Values,
		field{KeyBannerAltText, BannerAltText},
		field{KeySiteForumURL, SiteForumURL},
		field{KeySiteName, SiteName},
		field{KeySplashPageExplorationID, SplashPageExplorationID},
		field{KeySplashPageExplorationVersion, SplashPageExplorationVersion},
	)
	if err != nil {
		return Result{}, err
	}
	return Render(TemplateSplash, s.Values), nil
}

// About renders the about page.
func (h *Handlers) About(ctx context.Context, s *Session) (Result, error) {
	s.Values[KeyNavMode] = NavModeAbout
	err := h.fill(ctx, s.Values,
		field{KeyAdminEmailAddress, AdminEmailAddress},
		field{KeySiteForumURL, SiteForumURL},
		field{KeySiteName, SiteName},
	)
	if err != nil {
		return Result{}, err
	}
	return Render(TemplateAbout, s.Values), nil
}

// SiteGuidelines renders the community guidelines page.
func (h *Handlers) SiteGuidelines(ctx context.Context, s *Session) (Result, error) {
	s.Values[KeyNavMode] = NavModeAbout
	err := h.fill(ctx, s.Values,
		field{KeyModeratorRequestForumURL, exploration.ModeratorRequestForumURL},
		field{KeySiteName, SiteName},
	)
	if err != nil {
		return Result{}, err
	}
	return Render(TemplateSiteGuidelines, s.Values), nil
}

// Contact renders the contact page.
func (h *Handlers) Contact(ctx context.Context, s *Session) (Result, error) {
	s.Values[KeyNavMode] = NavModeAbout
	err := h.fill(ctx, s.Values,
		field{KeyAdminEmailAddress, AdminEmailAddress},
		field{KeySiteForumURL, SiteForumURL},
	)
	if err != nil {
		return Result{}, err
	}
	return Render(TemplateContact, s.Values), nil
}

func (h *Handlers) sendToDashboard(ctx context.Context, s *Session) (bool, error) {
	if s.UserID == "" {
		return false, nil
	}
	banned, err := h.config.List(ctx, configprop.BannedUsernames)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", configprop.BannedUsernames.Name, err)
	}
	if slices.Contains(banned, s.Username) {
		return false, nil
	}
	editor, err := h.editors.HasRegisteredAsEditor(ctx, s.UserID)
	if err != nil {
		return false, fmt.Errorf("checking editor registration: %w", err)
	}
	return editor, nil
}

// ensureDemo makes sure exploration id exists, reloading it from the
// bundled demo when it does not. The shared reload is detached from any one
// caller's cancellation; each caller stops waiting when its own ctx ends.
func (h *Handlers) ensureDemo(ctx context.Context, id string) error {
	shared := context.WithoutCancel(ctx)
	ch := h.bootstrap.DoChan(id, func() (any, error) {
		existing, err := h.demos.Lookup(shared, id)
		if err != nil {
			return nil, fmt.Errorf("looking up splash exploration %s: %w", id, err)
		}
		if existing != nil {
			return nil, nil
		}
		h.logger.Info("splash exploration missing, reloading demo", slog.String("id", id))
		if err := h.demos.DeleteDemo(shared, id); err != nil {
			return nil, fmt.Errorf("deleting demo %s: %w", id, err)
		}
		if err := h.demos.LoadDemo(shared, id); err != nil {
			return nil, fmt.Errorf("loading demo %s: %w", id, err)
		}
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
