// Package ws implements the WebSocket hub for carepulse-server.
//
// Hub keeps a set of connected clients and pushes the latest analysis run to
// all of them on a configurable interval, and right away whenever a new run
// is published.
//
// Message format sent to clients:
//
//	{
//	  "event": "run",
//	  "data":  { /* same schema as GET /api/v1/runs/latest, or null */ }
//	}
//
// The upgrader accepts all origins. The server mounts the hub at /ws/stream.
package ws
