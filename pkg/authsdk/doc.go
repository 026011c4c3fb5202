// Package authsdk holds the OAuth2 wire contract shared between the wren
// token endpoint and its clients: the RFC 6749 error model with fixed
// error_description strings, the token response payload types, and a small
// HTTP client wrapping the standard grants.
package authsdk
