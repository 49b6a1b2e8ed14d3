package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/templui/stash/internal/model"
)

var ErrIdentityUnverified = errors.New("identity provider returned no subject")

// IdentityResolver turns an authorization code into a verified identity.
type IdentityResolver interface {
	AuthCodeURL(state string) string
	Resolve(ctx context.Context, code string) (model.Identity, error)
}

type GoogleIdentityResolver struct {
	config *oauth2.Config
}

func NewGoogleIdentityResolver(clientID, clientSecret, redirectURL string) *GoogleIdentityResolver {
	return &GoogleIdentityResolver{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				googleoauth2.OpenIDScope,
				googleoauth2.UserinfoEmailScope,
				googleoauth2.UserinfoProfileScope,
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (r *GoogleIdentityResolver) AuthCodeURL(state string) string {
	return r.config.AuthCodeURL(state)
}

func (r *GoogleIdentityResolver) Resolve(ctx context.Context, code string) (model.Identity, error) {
	token, err := r.config.Exchange(ctx, code)
	if err != nil {
		return model.Identity{}, fmt.Errorf("google code exchange failed: %w", err)
	}

	svc, err := googleoauth2.NewService(ctx, option.WithTokenSource(r.config.TokenSource(ctx, token)))
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to create google userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get google user info: %w", err)
	}

	if info.Id == "" {
		return model.Identity{}, ErrIdentityUnverified
	}

	return model.Identity{
		Subject:   info.Id,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}
