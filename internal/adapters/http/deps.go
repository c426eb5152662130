package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geolocator/internal/adapters/postgres"
	"github.com/samirrijal/geolocator/internal/adapters/valkey"
	"github.com/samirrijal/geolocator/internal/core/usecases"
	"github.com/samirrijal/geolocator/internal/pkg/auth"
)

// Dependencies holds all services needed by HTTP handlers. Infrastructure
// fields may be nil; the handlers that need them degrade accordingly.
type Dependencies struct {
	Games  *usecases.GameService
	Users  *usecases.UserService
	Tokens *auth.Tokens
	NATS   *nats.Conn
	DB     *postgres.DB
	Valkey *valkey.Storage
}
