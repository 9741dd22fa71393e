package health

import (
	"time"

	"catalog-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DepStatus reports one dependency's reachability.
type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

type Handlers struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

// GET /health/json — pings the database and Redis.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	deps := map[string]DepStatus{
		"database": h.pingDB(),
		"redis":    h.pingRedis(c),
	}
	status := "ok"
	for _, d := range deps {
		if d.Status == "error" {
			status = "degraded"
		}
	}
	return response.Success(c, "Health collected", fiber.Map{
		"status":       status,
		"dependencies": deps,
	})
}

func (h *Handlers) pingDB() DepStatus {
	if h.DB == nil {
		return DepStatus{Status: "disconnected"}
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		return DepStatus{Status: "error"}
	}
	start := time.Now()
	if err := sqlDB.Ping(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

func (h *Handlers) pingRedis(c *fiber.Ctx) DepStatus {
	if h.Rdb == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := h.Rdb.Ping(c.Context()).Err(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}
