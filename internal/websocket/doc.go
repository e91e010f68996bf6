// Package websocket pushes dataset refresh events to connected dashboards.
package websocket
