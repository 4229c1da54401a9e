// Package server provides the HTTP API for submitting and tracking playlist
// migration jobs, plus OAuth handling for the CLI login flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API Surface
//
//	POST /api/jobs              → submit a migration job (202 Accepted)
//	GET  /api/jobs              → list the caller's jobs, newest first
//	GET  /api/jobs/{id}         → owner-checked job status
//	GET  /health                → liveness
//	GET  /auth/spotify/login    → OAuth initiation (redirect)
//	GET  /auth/spotify/callback → OAuth completion (sets token cookies)
//
// Requests are authenticated with the Spotify token cookies set by the
// callback route; the caller's identity is resolved against the Spotify /me
// endpoint on every request.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow for the
// CLI. The handler validates the state parameter (CSRF protection), exchanges
// the authorization code for tokens, and sends the result through a channel.
// It only processes one callback to prevent replay attacks. When the user runs
// the auth command, a temporary HTTP server starts on localhost, handles the
// callback, and shuts down after receiving the OAuth token.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
