// Package common contains shared constants and sentinel errors used across
// portal user components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultAuthority is the single authority granted to every credential.
const DefaultAuthority = "ROLE_user"

// DefaultSearchLimit caps the blank-keyword user search.
const DefaultSearchLimit = 20
