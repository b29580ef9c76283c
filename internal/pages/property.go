package pages

import (
	"github.com/sydlexius/sprout/internal/configprop"
	"github.com/sydlexius/sprout/internal/exploration"
)

// Properties read by the informational pages.
var (
	AdminEmailAddress = configprop.Property{
		Name:        "admin_email_address",
		Type:        configprop.TypeUnicodeString,
		Description: "The admin email address to display on the About pages",
		Default:     "ADMIN_EMAIL_ADDRESS",
	}
	SiteForumURL = configprop.Property{
		Name:        "site_forum_url",
		Type:        configprop.TypeUnicodeString,
		Description: "The site forum URL",
		Default:     "https://site/forum/url",
	}
	SiteName = configprop.Property{
		Name:        "site_name",
		Type:        configprop.TypeUnicodeString,
		Description: "The site name",
		Default:     "SITE_NAME",
	}
	BannerAltText = configprop.Property{
		Name:        "banner_alt_text",
		Type:        configprop.TypeUnicodeString,
		Description: "The alt text for the site banner image",
		Default:     "",
	}
	SplashPageExplorationID = configprop.Property{
		Name:        "splash_page_exploration_id",
		Type:        configprop.TypeUnicodeString,
		Description: "The id for the exploration on the splash page (a blank value indicates that no exploration should be displayed)",
		Default:     "",
	}
	SplashPageExplorationVersion = configprop.Property{
		Name:        "splash_page_exploration_version",
		Type:        configprop.TypeUnicodeString,
		Description: "The version number for the exploration on the splash page (a blank value indicates that the latest version should be used)",
		Default:     "",
	}
)

// Properties returns every property the site registers, including the ones
// other packages own but pages read.
func Properties() []configprop.Property {
	return []configprop.Property{
		AdminEmailAddress,
		SiteForumURL,
		SiteName,
		BannerAltText,
		SplashPageExplorationID,
		SplashPageExplorationVersion,
		exploration.ModeratorRequestForumURL,
		configprop.BannedUsernames,
		configprop.LoggingLevel,
		configprop.LoggingFormat,
	}
}
