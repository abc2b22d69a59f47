// Package http implements the HTTP handlers of the dashboard server.
// Handlers stay thin: they parse and validate the request, call a service
// and render the result.
//
// # Routes
//
//	GET /                                 dashboard page (embedded template)
//	GET /api/regions                      sorted region names
//	GET /api/dashboard/forecast           dashboard payload as JSON
//	GET /api/dashboard/charts/{chart}.svg population, economy or sectors chart
//	GET /api/health[/ready|/live]         health checks
//	GET /api/version                      build information
//	GET /ws                               websocket channel
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service
//	                                            ↓
//	HTTP Response ← Handler ← Service Response ←┘
//
// # Error Handling
//
// Every failure is written as RFC 7807 problem details by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/dashboard/forecast",
//	    "details": {"errors": [{"field": "horizon", "message": "horizon must be at most 30"}]}
//	}
//
// A dashboard part that cannot be computed, such as a region without GDP
// data, is not an error. It is reported in the warnings list of the
// payload and rendered as a labelled placeholder chart.
//
// # WebSocket
//
// The /ws endpoint upgrades with gorilla/websocket and registers the
// connection with the hub. Clients send {"type":"dashboard","data":{...}}
// and receive the same payload as the REST endpoint. A dataset_reloaded
// event is broadcast when the served workbook changes.
package http
