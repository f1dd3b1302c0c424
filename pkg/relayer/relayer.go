package relayer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xythum/darkpool-relayer/pkg/circuitbreaker"
	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/models"
	"github.com/xythum/darkpool-relayer/pkg/registry"
)

var (
	ErrAlreadySettled        = errors.New("swap already processed")
	ErrCircuitOpen           = errors.New("circuit breaker open")
	ErrInvalidTarget         = errors.New("invalid EVM target address")
	ErrInvalidExpectedAmount = errors.New("expected amount must be a positive integer")
	ErrSuperseded            = errors.New("reverse swap superseded")
)

// AssetChain is the Algorand side: the relayer account holding the ASA
type AssetChain interface {
	Address() string
	SendAsset(ctx context.Context, to string, amount uint64) (string, error)
	WaitConfirmed(ctx context.Context, txID string) (uint64, error)
	AssetBalance(ctx context.Context) (uint64, error)
}

// TokenChain is the EVM side: the relayer account holding TT
type TokenChain interface {
	Address() common.Address
	SendToken(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (uint64, error)
	TokenBalance(ctx context.Context) (*big.Int, error)
}

// Publisher delivers lifecycle events to observers
type Publisher interface {
	Publish(event models.Event)
}

// Explorer renders transaction links for log lines
type Explorer interface {
	AvaxTxURL(hash string) string
	AlgoTxURL(txID string) string
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.Event) {}

type plainExplorer struct{}

func (plainExplorer) AvaxTxURL(hash string) string { return hash }
func (plainExplorer) AlgoTxURL(txID string) string { return txID }

// Options configures a Relayer
type Options struct {
	Registry      *registry.Registry
	EVM           TokenChain
	Algo          AssetChain
	Publisher     Publisher
	Explorer      Explorer
	TokenDecimals uint
	QueueSize     int
	PollInterval  time.Duration
	AlgoBreaker   *circuitbreaker.CircuitBreaker
	EVMBreaker    *circuitbreaker.CircuitBreaker
	Logger        logger.Logger
}

// Relayer coordinates both swap directions
type Relayer struct {
	registry    *registry.Registry
	evm         TokenChain
	algo        AssetChain
	explorer    Explorer
	decimals    uint
	intents     chan models.LockIntent
	algoBreaker *circuitbreaker.CircuitBreaker
	evmBreaker  *circuitbreaker.CircuitBreaker
	poller      *Poller
	logger      logger.Logger

	publisherMu sync.RWMutex
	publisher   Publisher
}

func New(opts Options) *Relayer {
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Explorer == nil {
		opts.Explorer = plainExplorer{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Logger == nil {
		opts.Logger = &logger.EmptyLogger{}
	}
	if opts.AlgoBreaker == nil {
		opts.AlgoBreaker = circuitbreaker.NewCircuitBreaker(logger.Algo, false, 0, 0, 0, opts.Logger)
	}
	if opts.EVMBreaker == nil {
		opts.EVMBreaker = circuitbreaker.NewCircuitBreaker(logger.Avax, false, 0, 0, 0, opts.Logger)
	}

	r := &Relayer{
		registry:    opts.Registry,
		evm:         opts.EVM,
		algo:        opts.Algo,
		explorer:    opts.Explorer,
		decimals:    opts.TokenDecimals,
		intents:     make(chan models.LockIntent, opts.QueueSize),
		algoBreaker: opts.AlgoBreaker,
		evmBreaker:  opts.EVMBreaker,
		logger:      opts.Logger,
		publisher:   opts.Publisher,
	}
	r.poller = newPoller(r, opts.PollInterval)
	return r
}

// SetPublisher replaces the event sink; call before Start
func (r *Relayer) SetPublisher(p Publisher) {
	r.publisherMu.Lock()
	defer r.publisherMu.Unlock()
	r.publisher = p
}

func (r *Relayer) publish(event models.Event) {
	r.publisherMu.RLock()
	p := r.publisher
	r.publisherMu.RUnlock()
	p.Publish(event)
}

// Intents is the queue the event source writes decoded locks to
func (r *Relayer) Intents() chan<- models.LockIntent {
	return r.intents
}

// Poller returns the reverse poller
func (r *Relayer) Poller() *Poller {
	return r.poller
}

// Registry returns the swap registry
func (r *Relayer) Registry() *registry.Registry {
	return r.registry
}

// Breakers returns the circuit breakers keyed by chain name
func (r *Relayer) Breakers() map[string]*circuitbreaker.CircuitBreaker {
	return map[string]*circuitbreaker.CircuitBreaker{
		logger.Algo.String(): r.algoBreaker,
		logger.Avax.String(): r.evmBreaker,
	}
}

// ReportDecodeError publishes a lock log that could not be decoded
func (r *Relayer) ReportDecodeError(err error) {
	r.publish(models.NewError(models.WhereLockDecode, "", err))
}

// Start runs the forward pipeline and schedules the reverse poller; it returns when ctx is done
func (r *Relayer) Start(ctx context.Context) error {
	if err := r.poller.Start(ctx); err != nil {
		return err
	}

	r.logger.Notice("Relayer started: EVM %s, Algorand %s, decimals delta %d",
		r.evm.Address().Hex(), r.algo.Address(), r.decimals)

	r.runForward(ctx)
	return nil
}
