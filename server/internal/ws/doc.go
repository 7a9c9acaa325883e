// Package ws implements the WebSocket hub that streams the dashboard.
//
// Hub refreshes the pipeline on a configurable interval (the dashboard's
// auto-refresh period) and broadcasts the result to every connected client.
// Observers registered with New see each refreshed snapshot before it is
// broadcast; the server uses this to drive webhook notifications.
//
// New(src, interval, observers...) creates a Hub.
// Hub.Run(ctx) starts the refresh ticker. It blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends a fresh
// dashboard immediately on connect, then streams updates on each tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "dashboard",
//	  "data":  { /* same schema as GET /api/v1/dashboard */ }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. WebSocket endpoint is mounted at /ws/stream by the server.
package ws
