// Package app wires the auction house together: storage, gateways, the
// lifecycle service, the event log, and lifecycle-managed background
// services.
package app

import (
	"context"
	"fmt"

	"github.com/R3E-Network/auction_house/internal/app/events"
	gwmem "github.com/R3E-Network/auction_house/internal/app/gateway/memory"
	auctionssvc "github.com/R3E-Network/auction_house/internal/app/services/auctions"
	"github.com/R3E-Network/auction_house/internal/app/storage"
	"github.com/R3E-Network/auction_house/internal/app/storage/memory"
	"github.com/R3E-Network/auction_house/internal/app/system"
	"github.com/R3E-Network/auction_house/pkg/logger"
)

// DefaultCustodian is the escrow account of the default in-memory ledger.
const DefaultCustodian = "auction-house-escrow"

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Auctions storage.AuctionStore
	Credits  storage.CreditStore
}

// Application ties the lifecycle service to its collaborators and manages
// background services.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Auctions *auctionssvc.Service
	Events   *events.RingBuffer
}

// New builds a fully initialised application. Nil stores fall back to the
// in-memory registry; nil gateways fall back to a shared in-memory ledger,
// which is only suitable for local development and tests.
func New(stores Stores, gw auctionssvc.Gateways, eventBufferSize int, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Auctions == nil {
		stores.Auctions = mem
	}
	if stores.Credits == nil {
		stores.Credits = mem
	}

	if gw.Assets == nil || gw.Currency == nil || gw.Wrapped == nil || gw.Royalties == nil {
		log.Warn("one or more gateways unset; using the in-memory ledger")
		ledger := gwmem.NewLedger(DefaultCustodian)
		if gw.Assets == nil {
			gw.Assets = ledger
		}
		if gw.Currency == nil {
			gw.Currency = ledger
		}
		if gw.Wrapped == nil {
			gw.Wrapped = ledger
		}
		if gw.Royalties == nil {
			gw.Royalties = ledger
		}
	}

	eventLog := events.NewRingBuffer(eventBufferSize)
	svc := auctionssvc.New(stores.Auctions, stores.Credits, gw, eventLog, logger.New(log, "auctions"))

	manager := system.NewManager()
	if err := manager.Register(system.NoopService{ServiceName: "auctions"}); err != nil {
		return nil, fmt.Errorf("register auctions service: %w", err)
	}

	return &Application{
		manager:  manager,
		log:      log,
		Auctions: svc,
		Events:   eventLog,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
