package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Google signs users in with their Google account.
type Google struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogle configures the Google provider for the given OAuth client.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
	}
}

// AuthCodeURL implements Provider.
func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange implements Provider. It redeems the code and reads the profile
// from the userinfo endpoint with the resulting token.
func (g *Google) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("oauth exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("oauth exchange: build userinfo request: %w", err)
	}
	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("oauth exchange: userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("oauth exchange: userinfo status %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("oauth exchange: decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return Identity{}, fmt.Errorf("oauth exchange: userinfo has no subject")
	}
	if info.Email != "" && !info.EmailVerified {
		return Identity{}, fmt.Errorf("oauth exchange: email %s is not verified", info.Email)
	}

	return Identity{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}
