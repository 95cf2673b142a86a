package web

import "github.com/gofiber/fiber/v3/middleware/healthcheck"

const (
	LivenessPath  = "/livez"
	ReadinessPath = "/readyz"
)

type healthHandler struct{}

// NewHealthHandler serves liveness and readiness probes. Their spans are
// named "request handler - /livez" and "request handler - /readyz".
func NewHealthHandler() Handler {
	return &healthHandler{}
}

func (h *healthHandler) Priority() PriorityLevel {
	return Earliest
}

func (h *healthHandler) Handle(r Router) {
	r.Get(LivenessPath, healthcheck.New())
	r.Get(ReadinessPath, healthcheck.New())
}
