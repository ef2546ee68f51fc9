// Package api implements the HTTP surface of carepulse-server on a chi router.
//
// New(opts) returns an http.Handler that serves:
//
//	POST /api/v1/analyze                    JSON batch, returns the stored run (201)
//	POST /api/v1/analyze/upload             multipart "patients" + "hospital" sheets
//	GET  /api/v1/runs                       live run summaries, newest first (?limit=N)
//	GET  /api/v1/runs/latest                newest full run; 404 when none
//	GET  /api/v1/runs/{id}                  one full run; 404 if unknown or expired
//	GET  /api/v1/runs/{id}/patients/{pid}   one enriched patient
//	GET  /api/v1/alerts                     firing and recently resolved alerts
//	GET  /api/v1/health                     liveness, run and alert counts
//	GET  /metrics                           Prometheus exposition
//	GET  /ws/stream                         WebSocket hub, when configured
//
// Errors are JSON {"error": ..., "code": ...}. Malformed batches (missing
// hospital, missing patient list, duplicate patient ids) answer 400 with code
// INVALID_INPUT. The analyze endpoints share one token bucket; /metrics and
// /api/v1/health bypass authentication.
package api
