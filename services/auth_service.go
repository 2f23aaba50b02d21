package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/fenilmodi00/ipo-dashboard/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	authServiceName = "AuthService"

	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// ExternalIdentity is what the identity provider tells us about a signed-in person
type ExternalIdentity struct {
	GoogleID string
	Email    string
	Name     *string
}

// IdentityProvider runs the OAuth authorization-code flow
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// GoogleOAuthConfig configures GoogleIdentityProvider. The URL fields override Google's endpoints.
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleIdentityProvider signs users in with Google OAuth 2.0
type GoogleIdentityProvider struct {
	oauthConfig *oauth2.Config
	userInfoURL string
}

func NewGoogleIdentityProvider(config GoogleOAuthConfig) *GoogleIdentityProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}

	return &GoogleIdentityProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   config.AuthURL,
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: config.UserInfoURL,
	}
}

func (p *GoogleIdentityProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange trades the authorization code for a token and reads the user's profile
func (p *GoogleIdentityProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	response, err := p.oauthConfig.Client(ctx, token).Do(request)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, fmt.Errorf("userinfo returned HTTP %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	var info googleUserInfo
	if err := json.NewDecoder(response.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("userinfo response has no subject")
	}

	identity := &ExternalIdentity{GoogleID: info.Sub, Email: info.Email}
	if name := strings.TrimSpace(info.Name); name != "" {
		identity.Name = &name
	}
	return identity, nil
}

// AuthService links provider identities to local users
type AuthService struct {
	Provider IdentityProvider
	Users    storage.UserStore
}

func NewAuthService(provider IdentityProvider, users storage.UserStore) *AuthService {
	return &AuthService{Provider: provider, Users: users}
}

// NewOAuthState returns an unguessable value for the OAuth state parameter
func NewOAuthState() string {
	return uuid.NewString()
}

func (s *AuthService) LoginURL(state string) string {
	return s.Provider.AuthCodeURL(state)
}

// HandleCallback completes sign-in and returns the local user, creating it on first sign-in
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*models.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("missing authorization code", authServiceName, "HandleCallback")
	}

	identity, err := s.Provider.Exchange(ctx, code)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryAuthentication, "OAUTH_EXCHANGE_FAILED",
			"sign-in with the identity provider failed", authServiceName, "HandleCallback", false, err)
	}

	user, err := s.Users.FindOrCreateUser(ctx, identity.GoogleID, identity.Email, identity.Name)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryStorage, "STORAGE_FAILURE", authServiceName, "HandleCallback", false)
	}

	logrus.WithFields(logrus.Fields{
		"component": authServiceName,
		"user_id":   user.ID,
	}).Info("User signed in")

	return user, nil
}

// ResolveSessionUser loads the user behind a session; nil when the user no longer exists
func (s *AuthService) ResolveSessionUser(ctx context.Context, userID string) (*models.SessionUser, error) {
	if userID == "" {
		return nil, nil
	}
	user, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryStorage, "STORAGE_FAILURE", authServiceName, "ResolveSessionUser", false)
	}
	if user == nil {
		return nil, nil
	}
	return user.SessionUser(), nil
}
