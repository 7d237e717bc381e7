// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - Auth: API key validation through the X-API-Key header.
//   - RayID: a request id stored in Locals("ray_id") and echoed in X-Ray-ID,
//     picked up by logger.WithRayID.
package middleware
