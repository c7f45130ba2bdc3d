// Package handlers implements the HTTP surface of the service.
//
// Transcode endpoints share a single admission path: resolve the
// caller's identity and tier, validate the upload, check and commit the
// daily quota, run the encoder, and stream the result. Quota is spent
// once a job is admitted, so a failed encode still counts as a use.
//
// Endpoints:
//
//   - GET  /health               service health, no auth
//   - GET  /api/usage            caller's daily usage and limit
//   - POST /api/compress         transcode with a named preset
//   - POST /api/resize           transcode to explicit dimensions
//   - POST /api/webhook/payment  signed pro-activation events
//
// Error responses are JSON and never include internal paths. Process
// failures carry a bounded excerpt of the encoder's stderr.
package handlers
