package http

import (
	"github.com/nats-io/nats.go"

	"github.com/olaizola/maplabel/internal/adapters/postgres"
	"github.com/olaizola/maplabel/internal/adapters/valkey"
	"github.com/olaizola/maplabel/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Boxes    *usecases.BoxService
	Datasets *usecases.DatasetService
	Users    *usecases.UserService
	Exports  *usecases.ExportService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}
