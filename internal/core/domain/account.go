package domain

import "time"

// Account is a connected marketplace seller account.
// Accounts are created by the account-linking flow; the sync engine only
// rotates the token fields.
type Account struct {
	// ID is the unique identifier (UUID).
	ID string `json:"id" validate:"required"`
	// Name is a user-friendly label.
	Name string `json:"name" validate:"required"`
	// SellerID is the marketplace's identifier for the seller.
	SellerID string `json:"marketplace_seller_id" validate:"required"`

	// RefreshToken is the long-lived renewal credential.
	RefreshToken string `json:"refresh_token" validate:"required"`
	// AccessToken is the short-lived bearer token, empty until first refresh.
	AccessToken string `json:"access_token,omitempty"`
	// AccessExpiresAt is when AccessToken stops being valid.
	AccessExpiresAt time.Time `json:"access_expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasValidAccessToken returns true if the access token is present and its
// expiry is strictly after now.
func (a *Account) HasValidAccessToken(now time.Time) bool {
	if a.AccessToken == "" || a.AccessExpiresAt.IsZero() {
		return false
	}
	return a.AccessExpiresAt.After(now)
}

// ApplyTokens copies rotated token fields onto the account.
func (a *Account) ApplyTokens(t AccountTokens) {
	a.AccessToken = t.AccessToken
	a.RefreshToken = t.RefreshToken
	a.AccessExpiresAt = t.AccessExpiresAt
	a.UpdatedAt = t.UpdatedAt
}

// AccountTokens is the subset of Account the sync engine is allowed to write.
type AccountTokens struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	UpdatedAt       time.Time
}

// TokenGrant is the outcome of a refresh_token exchange.
type TokenGrant struct {
	AccessToken string
	// RefreshToken is empty when the marketplace did not rotate it.
	RefreshToken string
	ExpiresIn    time.Duration
}
