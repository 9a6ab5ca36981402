package market

import (
	"math/big"
	"sync"
	"time"

	"nftmarket/events"
)

// State is the persistence backend for offers, auctions and the fund ledger.
// Implementations only store and retrieve records; all transition rules live
// in the engine.
type State interface {
	OfferPut(*Offer) error
	OfferGet(id uint64) (*Offer, bool, error)
	OfferCount() (uint64, error)
	SetOfferCount(count uint64) error
	AuctionPut(*Auction) error
	AuctionGet(tokenID uint64) (*Auction, bool, error)
	AuctionList() ([]*Auction, error)
	FundsGet(addr [20]byte) (*big.Int, error)
	FundsPut(addr [20]byte, amount *big.Int) error
}

// AssetRegistry is the external collaborator that owns non-fungible assets.
// The engine delegates every ownership, custody and royalty decision to it.
type AssetRegistry interface {
	IsApprovedOrOwner(tokenID uint64, caller [20]byte) (bool, error)
	TransferCustody(tokenID uint64, from, to [20]byte) error
	RoyaltyInfo(tokenID uint64, salePrice *big.Int) (recipient [20]byte, amount *big.Int, err error)
}

// Paymaster moves native value out of the engine. PayOut is all-or-nothing.
type Paymaster interface {
	PayOut(to [20]byte, amount *big.Int) error
}

// Engine composes the offer book, auction house and fund ledger behind one
// serialization point. Every operation runs to completion under the engine
// mutex; a rejected operation leaves all state exactly as it was before the
// call.
type Engine struct {
	mu         sync.Mutex
	state      State
	registry   AssetRegistry
	payments   Paymaster
	emitter    events.Emitter
	escrowAddr [20]byte
	nowFn      func() int64
}

// NewEngine creates a marketplace engine with a no-op emitter. Callers must
// configure the state backend, registry, paymaster and escrow address before
// invoking operations.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state State) { e.state = state }

// SetRegistry configures the asset registry collaborator.
func (e *Engine) SetRegistry(registry AssetRegistry) { e.registry = registry }

// SetPaymaster configures the payment-transfer collaborator.
func (e *Engine) SetPaymaster(payments Paymaster) { e.payments = payments }

// SetEscrowAddress configures the account that holds custody of listed assets.
func (e *Engine) SetEscrowAddress(addr [20]byte) { e.escrowAddr = addr }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	switch {
	case e == nil || e.state == nil:
		return errStateNotSet
	case e.registry == nil:
		return errRegistryNotSet
	case e.payments == nil:
		return errPaymasterNotSet
	case e.escrowAddr == ([20]byte{}):
		return errEscrowAddrNotSet
	}
	return nil
}

// GetOffer returns the offer with the supplied identifier.
func (e *Engine) GetOffer(id uint64) (*Offer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, errStateNotSet
	}
	offer, ok, err := e.state.OfferGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOfferNotFound
	}
	return offer.Clone(), nil
}

// OfferCount reports how many offers have ever been created. Offer ids run
// from 1 to the count; terminated offers keep their ids.
func (e *Engine) OfferCount() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return 0, errStateNotSet
	}
	return e.state.OfferCount()
}

// Auctions lists every auction record known to the engine, active and
// terminal alike.
func (e *Engine) Auctions() ([]*Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, errStateNotSet
	}
	auctions, err := e.state.AuctionList()
	if err != nil {
		return nil, err
	}
	out := make([]*Auction, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, a.Clone())
	}
	return out, nil
}
