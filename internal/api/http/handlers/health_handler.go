package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is one readiness dependency. An Optional probe that fails marks the
// service degraded instead of unavailable.
type Probe struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	probes      []Probe
}

// NewHealthHandler reports readiness from every probe given.
func NewHealthHandler(serviceName, version string, probes ...Probe) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, probes: probes}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every probe concurrently.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	var (
		mu       sync.Mutex
		deps     = fiber.Map{}
		down     bool
		degraded bool
	)
	var g errgroup.Group
	for _, p := range h.probes {
		g.Go(func() error {
			err := p.Pinger.Ping(ctx)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				deps[p.Name] = "ok"
			case p.Optional:
				deps[p.Name] = err.Error()
				degraded = true
			default:
				deps[p.Name] = err.Error()
				down = true
			}
			return nil
		})
	}
	_ = g.Wait()

	if down {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": deps,
			},
		})
	}
	status := "ready"
	if degraded {
		status = "degraded"
	}
	return c.JSON(fiber.Map{"status": status, "dependencies": deps})
}
