package relayer

import (
	"context"
	"fmt"
	"sync"

	"github.com/xythum/darkpool-relayer/pkg/algoclient"
	"github.com/xythum/darkpool-relayer/pkg/broadcaster"
	"github.com/xythum/darkpool-relayer/pkg/chainclient"
	"github.com/xythum/darkpool-relayer/pkg/circuitbreaker"
	"github.com/xythum/darkpool-relayer/pkg/config"
	"github.com/xythum/darkpool-relayer/pkg/health"
	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/registry"
)

// Service wires the relayer to both chains and its HTTP surfaces
type Service struct {
	config   *config.Config
	relayer  *Relayer
	evm      *chainclient.Client
	algo     *algoclient.Client
	source   *chainclient.LockSource
	hub      *broadcaster.Hub
	events   *broadcaster.Server
	health   *health.Server
	balances *BalanceRoutine
	logger   logger.Logger
}

// NewService connects to both chains and builds every component
func NewService(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	evm, err := chainclient.New(ctx, cfg.EVM.WSURL, cfg.EVM.PrivateKey, cfg.EVM.TokenAddress, cfg.EVM.LockAddress, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create EVM client: %w", err)
	}

	algo, err := algoclient.New(cfg.Algorand.Server, cfg.Algorand.Port, cfg.Algorand.Token, cfg.Algorand.Mnemonic,
		cfg.Algorand.AssetID, cfg.Algorand.ConfirmationRounds, log)
	if err != nil {
		evm.Close()
		return nil, fmt.Errorf("failed to create Algorand client: %w", err)
	}

	breaker := func(chain logger.Chain) *circuitbreaker.CircuitBreaker {
		return circuitbreaker.NewCircuitBreaker(
			chain,
			cfg.CircuitBreaker.Enabled,
			cfg.CircuitBreaker.Threshold,
			cfg.CircuitBreaker.WindowDuration,
			cfg.CircuitBreaker.ResetTimeout,
			log,
		)
	}

	r := New(Options{
		Registry:      registry.New(),
		EVM:           evm,
		Algo:          algo,
		Explorer:      cfg,
		TokenDecimals: cfg.TokenDecimals,
		QueueSize:     cfg.EventQueueSize,
		PollInterval:  cfg.PollInterval,
		AlgoBreaker:   breaker(logger.Algo),
		EVMBreaker:    breaker(logger.Avax),
		Logger:        log,
	})

	hub := broadcaster.NewHub(r, broadcaster.DefaultSendBuffer, log)
	r.SetPublisher(hub)

	s := &Service{
		config:   cfg,
		relayer:  r,
		evm:      evm,
		algo:     algo,
		source:   evm.LockSource(chainclient.DefaultResubscribeBackoff),
		hub:      hub,
		events:   broadcaster.NewServer(cfg.WSPort, hub, log),
		balances: NewBalanceRoutine(ctx, evm, algo, DefaultBalanceInterval, log),
		logger:   log,
	}
	s.health = health.NewServer(cfg.HTTPPort, cfg.MetricsAPIKey, s, r.Breakers(), log)
	return s, nil
}

// Start runs every component until ctx is done or one of the servers fails
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Notice("Relayer EVM address %s, Algorand address %s, ASA %d on %s",
		s.evm.Address().Hex(), s.algo.Address(), s.algo.AssetID(), s.config.Network)

	var wg sync.WaitGroup
	errCh := make(chan error, 3)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.source.Run(ctx, s.relayer.Intents(), s.relayer.ReportDecodeError)
	}()

	s.balances.Start()

	run("event server", func() error { return s.events.Start(ctx) })
	run("health server", func() error { return s.health.Start(ctx) })
	run("relayer", func() error { return s.relayer.Start(ctx) })

	<-ctx.Done()
	s.balances.Stop()
	wg.Wait()
	close(errCh)

	return <-errCh
}

// Close releases the chain connections
func (s *Service) Close() {
	s.balances.Stop()
	s.evm.Close()
}
