package http

import (
	"github.com/nats-io/nats.go"
	"github.com/offenesthueringen/bahnclip/internal/adapters/postgres"
	"github.com/offenesthueringen/bahnclip/internal/adapters/valkey"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Clips      *usecases.ClipService
	Simplifier *usecases.SimplifyService

	// DefaultRegion and DefaultTolerance fill in omitted request fields.
	DefaultRegion    string
	DefaultTolerance float64

	// SpecPath locates the OpenAPI document served under /docs.
	SpecPath string

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
