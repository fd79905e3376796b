// Package connectors holds the clients for external marketplaces. Each
// subpackage implements the driven.Marketplace and driven.TokenRefresher
// ports for one marketplace API.
package connectors
