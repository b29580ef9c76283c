package pages

// Template names.
const (
	TemplateSplash         = "splash"
	TemplateAbout          = "about"
	TemplateSiteGuidelines = "site_guidelines"
	TemplateContact        = "contact"
	TemplateDashboard      = "dashboard"
	TemplateLogin          = "login"
)

// NavModeAbout highlights the About section of the shared navigation.
const NavModeAbout = "about"

// DashboardURL is where signed-in editors land instead of the splash page.
const DashboardURL = "/dashboard"

// Template value keys.
const (
	KeyAdminEmailAddress            = "ADMIN_EMAIL_ADDRESS"
	KeyBannerAltText                = "BANNER_ALT_TEXT"
	KeyModeratorRequestForumURL     = "MODERATOR_REQUEST_FORUM_URL"
	KeyNavMode                      = "nav_mode"
	KeySiteForumURL                 = "SITE_FORUM_URL"
	KeySiteName                     = "SITE_NAME"
	KeySplashPageExplorationID      = "SPLASH_PAGE_EXPLORATION_ID"
	KeySplashPageExplorationVersion = "SPLASH_PAGE_EXPLORATION_VERSION"
	KeyUsername                     = "username"
	KeyCSRFToken                    = "csrf_token"
)

// Values are the variables handed to a template.
type Values map[string]any

// String returns the value for key if it is a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Session is the per-request state a page works with. UserID and Username
// are empty for anonymous visitors.
type Session struct {
	UserID   string
	Username string
	Values   Values
}

// NewSession returns a session with an empty value map.
func NewSession(userID, username string) *Session {
	return &Session{UserID: userID, Username: username, Values: Values{}}
}

// Result is what a page asks the dispatcher to do: redirect, or render a
// template with values.
type Result struct {
	RedirectURL string
	Template    string
	Values      Values
}

// Redirect returns a result that sends the client to url.
func Redirect(url string) Result {
	return Result{RedirectURL: url}
}

// Render returns a result that renders template with values.
func Render(template string, values Values) Result {
	return Result{Template: template, Values: values}
}

// IsRedirect reports whether the result is a redirect.
func (r Result) IsRedirect() bool {
	return r.RedirectURL != ""
}
