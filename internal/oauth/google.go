// Package oauth implements the federated sign-in exchange with Google.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/templui/lanchat/internal/autherr"
	"github.com/templui/lanchat/internal/model"
)

const (
	ProviderGoogle = "google"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// CodeFunc sends the user to authURL and returns the authorization code
// delivered back with the given state.
type CodeFunc func(ctx context.Context, authURL, state string) (string, error)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overrides for tests; zero values use Google's endpoints.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
	codes       CodeFunc
}

func NewGoogle(cfg GoogleConfig, codes CodeFunc) *Google {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}

	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint,
		},
		userInfoURL: userInfoURL,
		codes:       codes,
	}
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Credential runs the authorization-code flow and returns the Google
// identity. Failures carry autherr codes.
func (g *Google) Credential(ctx context.Context) (*model.FederatedCredential, error) {
	state, err := newState()
	if err != nil {
		return nil, err
	}

	authURL := g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "select_account"))
	code, err := g.codes(ctx, authURL, state)
	if err != nil {
		return nil, classify(err)
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		return nil, classify(err)
	}

	resp, err := g.oauth.Client(ctx, token).Get(g.userInfoURL)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, autherr.New(autherr.TooManyRequests)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("google userinfo returned %d", resp.StatusCode)
	}

	var user googleUser
	err = json.NewDecoder(resp.Body).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to decode google user info: %w", err)
	}
	if user.ID == "" || user.Email == "" {
		return nil, autherr.Wrap(autherr.InvalidCredential, errors.New("google user info without id or email"))
	}

	return &model.FederatedCredential{
		Provider:    ProviderGoogle,
		Subject:     user.ID,
		Email:       user.Email,
		DisplayName: user.Name,
		PhotoURL:    user.Picture,
		AccessToken: token.AccessToken,
	}, nil
}

func classify(err error) error {
	if autherr.Code(err) != "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch {
		case re.ErrorCode == "access_denied":
			return autherr.Wrap(autherr.PopupClosedByUser, err)
		case re.Response != nil && re.Response.StatusCode == http.StatusTooManyRequests:
			return autherr.Wrap(autherr.TooManyRequests, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return autherr.Wrap(autherr.NetworkFailed, err)
	}
	return err
}

func newState() (string, error) {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
