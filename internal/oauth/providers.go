package oauth

import (
	"encoding/json"
	"fmt"
)

// Built-in provider definitions. Credentials are filled in from config at
// startup; the URLs and profile shapes here are fixed per provider.

const (
	ProviderChat    = "chat"
	ProviderTwitter = "twitter"
	ProviderDiscord = "discord"
)

// ChatProvider is the platform's own account system. PKCE is mandatory.
func ChatProvider(authURL, tokenURL, profileURL string) *Provider {
	return &Provider{
		Name:       ProviderChat,
		AuthURL:    authURL,
		TokenURL:   tokenURL,
		ProfileURL: profileURL,
		Scopes:     []string{"user:read"},
		UsePKCE:    true,
		MapProfile: mapChatProfile,
	}
}

func TwitterProvider() *Provider {
	return &Provider{
		Name:       ProviderTwitter,
		AuthURL:    "https://twitter.com/i/oauth2/authorize",
		TokenURL:   "https://api.twitter.com/2/oauth2/token",
		ProfileURL: "https://api.twitter.com/2/users/me?user.fields=profile_image_url",
		Scopes:     []string{"users.read", "tweet.read"},
		UsePKCE:    true,
		MapProfile: mapTwitterProfile,
	}
}

func DiscordProvider() *Provider {
	return &Provider{
		Name:       ProviderDiscord,
		AuthURL:    "https://discord.com/oauth2/authorize",
		TokenURL:   "https://discord.com/api/oauth2/token",
		ProfileURL: "https://discord.com/api/users/@me",
		Scopes:     []string{"identify"},
		UsePKCE:    false,
		MapProfile: mapDiscordProfile,
	}
}

// mapChatProfile: ids are numeric in the platform API, kept as strings here.
func mapChatProfile(raw []byte) (Profile, error) {
	var body struct {
		ID         json.Number `json:"user_id"`
		Username   string      `json:"username"`
		ProfilePic string      `json:"profile_pic"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Profile{}, fmt.Errorf("chat profile: %w", err)
	}
	return Profile{
		ID:          body.ID.String(),
		Username:    body.Username,
		DisplayName: body.Username,
		AvatarURL:   body.ProfilePic,
	}, nil
}

// mapTwitterProfile: v2 /users/me wraps the user in a "data" object.
func mapTwitterProfile(raw []byte) (Profile, error) {
	var body struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Profile{}, fmt.Errorf("twitter profile: %w", err)
	}
	return Profile{
		ID:          body.Data.ID,
		Username:    body.Data.Username,
		DisplayName: body.Data.Name,
		AvatarURL:   body.Data.ProfileImageURL,
	}, nil
}

// mapDiscordProfile: the avatar field is a hash, not a URL; the CDN URL is
// derived from it. global_name falls back to username for older accounts.
func mapDiscordProfile(raw []byte) (Profile, error) {
	var body struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Avatar     string `json:"avatar"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Profile{}, fmt.Errorf("discord profile: %w", err)
	}
	display := body.GlobalName
	if display == "" {
		display = body.Username
	}
	avatar := ""
	if body.Avatar != "" {
		avatar = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", body.ID, body.Avatar)
	}
	return Profile{
		ID:          body.ID,
		Username:    body.Username,
		DisplayName: display,
		AvatarURL:   avatar,
	}, nil
}
