// Package middleware provides HTTP middleware for the budget API server:
// request IDs, structured request logging, and panic recovery.
//
// Middleware is applied as a chain, with recovery outermost:
//
//	handler = middleware.RequestIDMiddleware(handler)
//	handler = middleware.LoggingMiddleware(handler)
//	handler = middleware.RecoveryMiddleware(handler)
package middleware
