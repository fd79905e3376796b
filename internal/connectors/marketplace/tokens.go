package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure TokenRefresher implements the interface.
var _ driven.TokenRefresher = (*TokenRefresher)(nil)

// DefaultTokenLifetime is assumed when the token endpoint omits expires_in.
const DefaultTokenLifetime = 6 * time.Hour

// TokenRefresher exchanges refresh tokens at the marketplace token endpoint
// using the refresh_token grant. It never retries: a failed exchange is
// reported to the caller straight away.
type TokenRefresher struct {
	config     oauth2.Config
	httpClient *http.Client
}

// NewTokenRefresher creates a refresher for the given application
// credentials. A nil httpClient uses one with DefaultTimeout.
func NewTokenRefresher(tokenURL, clientID, clientSecret string, httpClient *http.Client) *TokenRefresher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &TokenRefresher{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// Refresh performs the refresh_token grant.
//
// A 4xx answer from the token endpoint (typically invalid_grant) means the
// refresh token is dead and is reported as domain.ErrReauthorizationRequired.
// Anything else is domain.ErrTokenRefreshFailed.
func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	if refreshToken == "" {
		return nil, domain.ErrAuthRequired
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil &&
			rErr.Response.StatusCode >= http.StatusBadRequest &&
			rErr.Response.StatusCode < http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %s", domain.ErrReauthorizationRequired, describeRetrieveError(rErr))
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenRefreshFailed, err)
	}

	return &domain.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    lifetime(tok),
	}, nil
}

func lifetime(tok *oauth2.Token) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if !tok.Expiry.IsZero() {
		if d := time.Until(tok.Expiry); d > 0 {
			return d
		}
	}
	return DefaultTokenLifetime
}

func describeRetrieveError(e *oauth2.RetrieveError) string {
	if e.ErrorCode != "" {
		if e.ErrorDescription != "" {
			return e.ErrorCode + ": " + e.ErrorDescription
		}
		return e.ErrorCode
	}
	return fmt.Sprintf("token endpoint returned %d", e.Response.StatusCode)
}
