package templates

import (
	"strings"

	"github.com/sydlexius/sprout/internal/pages"
)

// AssetPaths holds cache-busted URLs for static assets plus the base path
// that every internal link is prefixed with.
type AssetPaths struct {
	BasePath string
	CSS      string
	LoginJS  string
	Icon     string
}

// href joins an internal path onto the base path.
func (a AssetPaths) href(path string) string {
	return a.BasePath + path
}

type layoutOptions struct {
	Title    string
	Assets   AssetPaths
	NavMode  string
	Username string
	Scripts  []string
}

// active reports whether item is highlighted under the page's nav mode.
func (o layoutOptions) active(item navItem) bool {
	return o.NavMode != "" && item.Mode == o.NavMode
}

type navItem struct {
	Label string
	Path  string
	Mode  string
}

var navItems = []navItem{
	{Label: "About", Path: "/about", Mode: pages.NavModeAbout},
	{Label: "Guidelines", Path: "/site_guidelines", Mode: pages.NavModeAbout},
	{Label: "Contact", Path: "/contact", Mode: pages.NavModeAbout},
}

// mailto builds a mailto URL, or "" when addr does not look like an
// address.
func mailto(addr string) string {
	if !strings.Contains(addr, "@") {
		return ""
	}
	return "mailto:" + addr
}

// pageTitle appends the site name when one is known.
func pageTitle(title, siteName string) string {
	if siteName == "" || siteName == title {
		return title
	}
	return title + " | " + siteName
}
