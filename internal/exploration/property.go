package exploration

import "github.com/sydlexius/sprout/internal/configprop"

// ModeratorRequestForumURL is where users ask moderators for help with an
// exploration.
var ModeratorRequestForumURL = configprop.Property{
	Name:        "moderator_request_forum_url",
	Type:        configprop.TypeUnicodeString,
	Description: "A link to the forum for nominating explorations for release",
	Default:     "https://moderator/request/forum/url",
}
