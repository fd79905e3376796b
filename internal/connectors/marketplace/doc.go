// Package marketplace is the HTTP adapter for the marketplace API.
//
// It implements driven.Marketplace (catalog search, item multi-get and
// order search) and driven.TokenRefresher (OAuth refresh_token grant).
// Requests are rate limited client-side; transient failures (5xx, 429,
// transport errors) are retried with exponential backoff, 4xx responses
// are returned immediately.
package marketplace
