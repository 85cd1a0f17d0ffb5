// Package middleware limits the request rate of OOV API clients.
//
// RateLimiter keeps a token bucket per client in process.
// DistributedRateLimiter keeps a fixed window counter per client in Redis so
// limits hold across replicas.
//
//	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
//		RequestsPerWindow: 600,
//		WindowDuration:    time.Minute,
//		BurstSize:         60,
//	})
//	v1.Use(middleware.RateLimit(limiter, logger))
//
// Clients are keyed by ClientIP. Limiter errors fail open.
package middleware
