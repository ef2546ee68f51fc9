// Package shipper posts raw patient/hospital batches to carepulse-server
// (POST /api/v1/analyze) over HTTP.
//
// Send is synchronous and relies on the resty client for retries (network
// errors, 429 and 5xx). 4xx answers wrap ErrRejected and are not retried.
//
// Ship/Run form the watch-mode path: Ship is non-blocking and evicts the
// oldest batch when the queue is full; Run drains it with truncated
// exponential backoff (1s to 60s, ±25% jitter) between transient failures.
//
// Every batch carries a uuid so the server can correlate stored runs.
package shipper
