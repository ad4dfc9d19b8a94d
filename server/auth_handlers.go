package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/techagentng/aquawatch/config"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"github.com/techagentng/aquawatch/server/response"
	"github.com/techagentng/aquawatch/services/jwt"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// NewGoogleOAuthConfig builds the OAuth client for Google sign-in.
func NewGoogleOAuthConfig(conf *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     conf.GoogleClientID,
		ClientSecret: conf.GoogleClientSecret,
		RedirectURL:  conf.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
	}
}

func (s *Server) HandleGoogleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := jwt.GenerateStateToken(s.Config.JWTSecret)
		if err != nil {
			s.respondWithError(c, "failed to generate state", err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, s.OAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline))
	}
}

func (s *Server) HandleGoogleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := jwt.VerifyStateToken(c.Query("state"), s.Config.JWTSecret); err != nil {
			response.JSON(c, "invalid or expired state", http.StatusForbidden, nil, errs.New("invalid or expired state", http.StatusForbidden))
			return
		}
		code := c.Query("code")
		if code == "" {
			response.JSON(c, "missing authorization code", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		ctx := c.Request.Context()
		identity, err := s.fetchGoogleIdentity(ctx, code)
		if err != nil {
			s.Logger.Warn("google sign-in failed", zap.Error(err))
			response.JSON(c, "failed to fetch user information", http.StatusBadGateway, nil, errs.New("identity provider unavailable", http.StatusBadGateway))
			return
		}

		user, err := s.IdentityService.ResolveUser(ctx, *identity)
		if err != nil {
			s.respondWithError(c, "failed to process user", err)
			return
		}
		s.issueToken(c, user)
	}
}

// fetchGoogleIdentity exchanges the authorization code and reads the
// userinfo endpoint.
func (s *Server) fetchGoogleIdentity(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	token, err := s.OAuthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "token exchange failed")
	}
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(s.OAuthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, errors.Wrap(err, "could not create userinfo client")
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "userinfo request failed")
	}
	return &models.ExternalIdentity{
		ProviderID: info.Id,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}, nil
}

func (s *Server) issueToken(c *gin.Context, user *models.User) {
	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, s.Config.JWTSecret, s.Config.TokenTTL)
	if err != nil {
		s.respondWithError(c, "failed to generate token", err)
		return
	}
	response.JSON(c, "login successful", http.StatusOK, models.LoginResponse{
		UserResponse: user.Response(),
		AccessToken:  token,
	}, nil)
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		user, err := s.IdentityService.GetUser(c.Request.Context(), userID)
		if err != nil {
			s.respondWithError(c, "failed to fetch user profile", err)
			return
		}
		response.JSON(c, "User profile retrieved successfully", http.StatusOK, user.Response(), nil)
	}
}
