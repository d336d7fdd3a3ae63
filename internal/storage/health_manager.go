package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Health states
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

// HealthData is the result of one store health check.
type HealthData struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// HealthManager keeps the latest health check of a store.
type HealthManager struct {
	mu     sync.RWMutex
	health HealthData
}

// NewHealthManager creates a health manager in the unknown state
func NewHealthManager() *HealthManager {
	return &HealthManager{health: HealthData{Status: StatusUnknown}}
}

// UpdateHealth records a check result
func (hm *HealthManager) UpdateHealth(h HealthData) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.health = h
}

// GetHealth returns the latest check result
func (hm *HealthManager) GetHealth() HealthData {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.health
}

// IsHealthy reports whether the latest check passed and is newer than maxAge
func (hm *HealthManager) IsHealthy(maxAge time.Duration) bool {
	h := hm.GetHealth()
	return h.Status == StatusHealthy && time.Since(h.LastCheck) <= maxAge
}

// Check pings store once and records the result.
func (hm *HealthManager) Check(ctx context.Context, store Store) HealthData {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	h := HealthData{LastCheck: time.Now().UTC(), Status: StatusHealthy}
	if err := store.Ping(ctx); err != nil {
		h.Status = StatusUnhealthy
		h.Error = err.Error()
	}
	hm.UpdateHealth(h)
	return h
}

// StartHealthMonitor checks store every interval until ctx is done.
func (hm *HealthManager) StartHealthMonitor(ctx context.Context, store Store, interval time.Duration, logger *zap.SugaredLogger) {
	go func() {
		update := func() {
			h := hm.Check(ctx, store)
			if h.Status != StatusHealthy {
				logger.Errorf("solution history health check failed: %s", h.Error)
			} else {
				logger.Debugf("solution history health status: %s", h.Status)
			}
		}

		update()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				logger.Info("stopping solution history health monitor")
				return
			}
		}
	}()
}
