// Package handlers holds the pieces of the HTTP layer that do not depend on
// the lineup domain: health aggregation, bcrypt API key auth and generic
// middleware. The MCP endpoint reuses them too.
//
// Health checks run concurrently; optional ones only affect /health:
//
//	checker := handlers.NewCompositeHealthChecker("v0.1.0")
//	checker.AddCheck("store", handlers.NewPingCheck(store))
//	checker.AddOptionalCheck("lineup_cache", handlers.NewPingCheck(cache))
//
// API keys are stored as bcrypt hashes (see cmd/hashkey):
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", hashes)
//	h := handlers.Chain(
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.RequestSizeLimitMiddleware(1<<20),
//	    auth.Middleware,
//	)(api)
package handlers
