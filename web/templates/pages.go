package templates

import (
	"github.com/a-h/templ"

	"github.com/sydlexius/sprout/internal/exploration"
	"github.com/sydlexius/sprout/internal/pages"
)

// KeyExplorations holds the []exploration.Exploration listed on the
// dashboard.
const KeyExplorations = "explorations"

type splashView struct {
	Layout             layoutOptions
	SiteName           string
	BannerAlt          string
	ExplorationID      string
	ExplorationVersion string
	ForumURL           string
}

type aboutView struct {
	Layout     layoutOptions
	SiteName   string
	ForumURL   string
	AdminEmail string
}

type guidelinesView struct {
	Layout            layoutOptions
	SiteName          string
	ModeratorForumURL string
}

type contactView struct {
	Layout     layoutOptions
	ForumURL   string
	AdminEmail string
}

type dashboardView struct {
	Layout       layoutOptions
	Username     string
	Explorations []exploration.Exploration
}

var guidelines = []string{
	"Be respectful of other learners and editors.",
	"Only contribute content you have the right to share.",
	"Keep explorations accurate and cite your sources.",
	"Report problems to a moderator instead of editing around them.",
}

// SplashPage is the landing page.
func SplashPage(assets AssetPaths, v pages.Values) templ.Component {
	siteName := v.String(pages.KeySiteName)
	return splash(splashView{
		Layout: layoutOptions{
			Title:    pageTitle("Home", siteName),
			Assets:   assets,
			Username: v.String(pages.KeyUsername),
		},
		SiteName:           siteName,
		BannerAlt:          v.String(pages.KeyBannerAltText),
		ExplorationID:      v.String(pages.KeySplashPageExplorationID),
		ExplorationVersion: v.String(pages.KeySplashPageExplorationVersion),
		ForumURL:           v.String(pages.KeySiteForumURL),
	})
}

// AboutPage describes the site.
func AboutPage(assets AssetPaths, v pages.Values) templ.Component {
	siteName := v.String(pages.KeySiteName)
	return about(aboutView{
		Layout: layoutOptions{
			Title:    pageTitle("About", siteName),
			Assets:   assets,
			NavMode:  v.String(pages.KeyNavMode),
			Username: v.String(pages.KeyUsername),
		},
		SiteName:   siteName,
		ForumURL:   v.String(pages.KeySiteForumURL),
		AdminEmail: v.String(pages.KeyAdminEmailAddress),
	})
}

// SiteGuidelinesPage lists community guidelines.
func SiteGuidelinesPage(assets AssetPaths, v pages.Values) templ.Component {
	siteName := v.String(pages.KeySiteName)
	return siteGuidelines(guidelinesView{
		Layout: layoutOptions{
			Title:    pageTitle("Site Guidelines", siteName),
			Assets:   assets,
			NavMode:  v.String(pages.KeyNavMode),
			Username: v.String(pages.KeyUsername),
		},
		SiteName:          siteName,
		ModeratorForumURL: v.String(pages.KeyModeratorRequestForumURL),
	})
}

// ContactPage tells visitors how to reach the site.
func ContactPage(assets AssetPaths, v pages.Values) templ.Component {
	return contact(contactView{
		Layout: layoutOptions{
			Title:    "Contact",
			Assets:   assets,
			NavMode:  v.String(pages.KeyNavMode),
			Username: v.String(pages.KeyUsername),
		},
		ForumURL:   v.String(pages.KeySiteForumURL),
		AdminEmail: v.String(pages.KeyAdminEmailAddress),
	})
}

// DashboardPage lists explorations for a signed-in user.
func DashboardPage(assets AssetPaths, v pages.Values) templ.Component {
	username := v.String(pages.KeyUsername)
	exps, _ := v[KeyExplorations].([]exploration.Exploration)
	return dashboard(dashboardView{
		Layout: layoutOptions{
			Title:    "Dashboard",
			Assets:   assets,
			Username: username,
		},
		Username:     username,
		Explorations: exps,
	})
}

// LoginPage is the sign-in form. The script posts it to the login API.
func LoginPage(assets AssetPaths, _ pages.Values) templ.Component {
	return login(layoutOptions{
		Title:   "Sign in",
		Assets:  assets,
		Scripts: []string{assets.LoginJS},
	})
}
