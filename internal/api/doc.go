// Package api contains the HTTP transports for the commerce backend: a REST
// client for the V1 endpoints and a GraphQL client for cart operations.
// Both attach the session's bearer token per request and map backend
// failures onto a small sentinel-error taxonomy, so higher layers can use
// errors.Is without inspecting HTTP details.
package api
