package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	ws "salesdash/internal/websocket"
)

// DatasetProbe reports whether a snapshot has loaded.
type DatasetProbe interface {
	Loaded() bool
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	dataset   DatasetProbe
	hub       ws.Broadcaster
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. hub may be nil.
func NewHealthService(version, buildTime string, probe DatasetProbe, hub ws.Broadcaster, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		dataset:   probe,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports ready once a dataset snapshot has loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"dataset":   hs.checkDataset(),
			"websocket": hs.checkWebSocket(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.DebugContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

// Ready reports whether ReadinessCheck would succeed.
func (hs *HealthService) Ready(ctx context.Context) bool {
	return hs.ReadinessCheck(ctx).Status == "ready"
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.UTC().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.dataset == nil || !hs.dataset.Loaded() {
		return ServiceHealth{Status: "not_ready", Message: "no dataset loaded yet"}
	}
	return ServiceHealth{Status: "ready"}
}

// The hub is optional; without one there is nothing to check.
func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "disabled"}
	}
	if r, ok := hs.hub.(interface{ Running() bool }); ok && !r.Running() {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub stopped"}
	}
	return ServiceHealth{Status: "ready"}
}
