// Package templates renders the site's HTML pages as templ components.
//
// The *_templ.go files are generated from the .templ sources; regenerate
// them after editing a component.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.1001 generate
//go:generate go run ../../tools/genfavicon -out ../static/img

import (
	"errors"
	"fmt"

	"github.com/a-h/templ"

	"github.com/sydlexius/sprout/internal/pages"
)

// ErrUnknownTemplate is returned by Render for a name with no component.
var ErrUnknownTemplate = errors.New("unknown template")

type pageFunc func(AssetPaths, pages.Values) templ.Component

var registry = map[string]pageFunc{
	pages.TemplateSplash:         SplashPage,
	pages.TemplateAbout:          AboutPage,
	pages.TemplateSiteGuidelines: SiteGuidelinesPage,
	pages.TemplateContact:        ContactPage,
	pages.TemplateDashboard:      DashboardPage,
	pages.TemplateLogin:          LoginPage,
}

// Render returns the component for the named template.
func Render(name string, assets AssetPaths, values pages.Values) (templ.Component, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if values == nil {
		values = pages.Values{}
	}
	return fn(assets, values), nil
}
