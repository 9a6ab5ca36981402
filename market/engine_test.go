package market

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"testing"

	"nftmarket/events"
)

type mockState struct {
	offers     map[uint64]*Offer
	auctions   map[uint64]*Auction
	funds      map[[20]byte]*big.Int
	offerCount uint64

	failOfferPut   bool
	failAuctionPut bool
	failFundsPut   bool
}

func newMockState() *mockState {
	return &mockState{
		offers:   make(map[uint64]*Offer),
		auctions: make(map[uint64]*Auction),
		funds:    make(map[[20]byte]*big.Int),
	}
}

func (m *mockState) OfferPut(o *Offer) error {
	if m.failOfferPut {
		return fmt.Errorf("mock: offer put failed")
	}
	if o == nil {
		return fmt.Errorf("nil offer")
	}
	m.offers[o.ID] = o.Clone()
	return nil
}

func (m *mockState) OfferGet(id uint64) (*Offer, bool, error) {
	o, ok := m.offers[id]
	if !ok {
		return nil, false, nil
	}
	return o.Clone(), true, nil
}

func (m *mockState) OfferCount() (uint64, error) { return m.offerCount, nil }

func (m *mockState) SetOfferCount(count uint64) error {
	m.offerCount = count
	return nil
}

func (m *mockState) AuctionPut(a *Auction) error {
	if m.failAuctionPut {
		return fmt.Errorf("mock: auction put failed")
	}
	if a == nil {
		return fmt.Errorf("nil auction")
	}
	m.auctions[a.TokenID] = a.Clone()
	return nil
}

func (m *mockState) AuctionGet(tokenID uint64) (*Auction, bool, error) {
	a, ok := m.auctions[tokenID]
	if !ok {
		return nil, false, nil
	}
	return a.Clone(), true, nil
}

func (m *mockState) AuctionList() ([]*Auction, error) {
	ids := make([]uint64, 0, len(m.auctions))
	for id := range m.auctions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Auction, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.auctions[id].Clone())
	}
	return out, nil
}

func (m *mockState) FundsGet(addr [20]byte) (*big.Int, error) {
	if balance, ok := m.funds[addr]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) FundsPut(addr [20]byte, amount *big.Int) error {
	if m.failFundsPut {
		return fmt.Errorf("mock: funds put failed")
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("bad balance")
	}
	m.funds[addr] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	if balance, ok := m.funds[addr]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

// ledgerTotal sums every stored ledger balance, used by the conservation
// checks.
func (m *mockState) ledgerTotal() *big.Int {
	total := big.NewInt(0)
	for _, balance := range m.funds {
		total.Add(total, balance)
	}
	return total
}

type mockToken struct {
	owner    [20]byte
	creator  [20]byte
	approved [20]byte
	royalty  int64 // bps
}

type mockRegistry struct {
	tokens       map[uint64]*mockToken
	failTransfer bool
	transfers    int
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{tokens: make(map[uint64]*mockToken)}
}

func (r *mockRegistry) mint(tokenID uint64, owner [20]byte, royaltyBps int64) {
	r.tokens[tokenID] = &mockToken{owner: owner, creator: owner, royalty: royaltyBps}
}

func (r *mockRegistry) approve(tokenID uint64, operator [20]byte) {
	r.tokens[tokenID].approved = operator
}

func (r *mockRegistry) ownerOf(tokenID uint64) [20]byte {
	return r.tokens[tokenID].owner
}

func (r *mockRegistry) IsApprovedOrOwner(tokenID uint64, caller [20]byte) (bool, error) {
	tok, ok := r.tokens[tokenID]
	if !ok {
		return false, fmt.Errorf("mock: unknown token %d", tokenID)
	}
	return tok.owner == caller || tok.approved == caller, nil
}

func (r *mockRegistry) TransferCustody(tokenID uint64, from, to [20]byte) error {
	if r.failTransfer {
		return fmt.Errorf("mock: transfer refused")
	}
	tok, ok := r.tokens[tokenID]
	if !ok {
		return fmt.Errorf("mock: unknown token %d", tokenID)
	}
	if tok.owner != from && tok.approved != from {
		return fmt.Errorf("mock: %x does not hold token %d", from, tokenID)
	}
	tok.owner = to
	tok.approved = [20]byte{}
	r.transfers++
	return nil
}

func (r *mockRegistry) RoyaltyInfo(tokenID uint64, salePrice *big.Int) ([20]byte, *big.Int, error) {
	tok, ok := r.tokens[tokenID]
	if !ok {
		return [20]byte{}, nil, fmt.Errorf("mock: unknown token %d", tokenID)
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(tok.royalty))
	amount.Div(amount, big.NewInt(10_000))
	return tok.creator, amount, nil
}

type mockPaymaster struct {
	payouts  map[[20]byte]*big.Int
	failNext bool
}

func newMockPaymaster() *mockPaymaster {
	return &mockPaymaster{payouts: make(map[[20]byte]*big.Int)}
}

func (p *mockPaymaster) PayOut(to [20]byte, amount *big.Int) error {
	if p.failNext {
		p.failNext = false
		return fmt.Errorf("mock: payout refused")
	}
	current, ok := p.payouts[to]
	if !ok {
		current = big.NewInt(0)
	}
	p.payouts[to] = new(big.Int).Add(current, amount)
	return nil
}

func (p *mockPaymaster) paid(to [20]byte) *big.Int {
	if amount, ok := p.payouts[to]; ok {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

type capturingEmitter struct {
	records []*events.Record
}

func (c *capturingEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	c.records = append(c.records, evt.Event())
}

func (c *capturingEmitter) types() []string {
	out := make([]string, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec.Type)
	}
	return out
}

func (c *capturingEmitter) last() *events.Record {
	if len(c.records) == 0 {
		return nil
	}
	return c.records[len(c.records)-1]
}

const testNow = 1_700_000_000

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

var escrowAddr = newTestAddress(0xEE)

type testEnv struct {
	engine   *Engine
	state    *mockState
	registry *mockRegistry
	payments *mockPaymaster
	emitter  *capturingEmitter
	now      int64
}

func newTestEnv() *testEnv {
	env := &testEnv{
		state:    newMockState(),
		registry: newMockRegistry(),
		payments: newMockPaymaster(),
		emitter:  &capturingEmitter{},
		now:      testNow,
	}
	engine := NewEngine()
	engine.SetState(env.state)
	engine.SetRegistry(env.registry)
	engine.SetPaymaster(env.payments)
	engine.SetEmitter(env.emitter)
	engine.SetEscrowAddress(escrowAddr)
	engine.SetNowFunc(func() int64 { return env.now })
	env.engine = engine
	return env
}

func (env *testEnv) advance(seconds int64) { env.now += seconds }

func TestEngineRequiresConfiguration(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.MakeOffer(1, big.NewInt(10), newTestAddress(0x01)); !errors.Is(err, errStateNotSet) {
		t.Fatalf("expected state error, got %v", err)
	}
	engine.SetState(newMockState())
	if _, err := engine.MakeOffer(1, big.NewInt(10), newTestAddress(0x01)); !errors.Is(err, errRegistryNotSet) {
		t.Fatalf("expected registry error, got %v", err)
	}
}

func TestEndToEndOfferScenario(t *testing.T) {
	env := newTestEnv()
	seller := newTestAddress(0x01)
	buyer := newTestAddress(0x02)
	env.registry.mint(7, seller, 0)
	env.registry.approve(7, escrowAddr)

	offer, err := env.engine.MakeOffer(7, big.NewInt(10), seller)
	if err != nil {
		t.Fatalf("make offer: %v", err)
	}
	if err := env.engine.FillOffer(offer.ID, buyer, big.NewInt(10)); err != nil {
		t.Fatalf("fill offer: %v", err)
	}
	if got := env.registry.ownerOf(7); got != buyer {
		t.Fatalf("expected buyer to own token, got %x", got)
	}
	if got := env.state.balance(seller).String(); got != "10" {
		t.Fatalf("expected seller balance 10, got %s", got)
	}
	if err := env.engine.FillOffer(offer.ID, buyer, big.NewInt(10)); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected state conflict on refill, got %v", err)
	}
}

// Credits written to the ledger never exceed the value the engine received
// through fills and bids.
func TestValueConservationAcrossOperations(t *testing.T) {
	env := newTestEnv()
	seller := newTestAddress(0x01)
	buyer := newTestAddress(0x02)
	first := newTestAddress(0x03)
	second := newTestAddress(0x04)

	env.registry.mint(1, seller, 100) // 1% royalty, creator == seller
	env.registry.approve(1, escrowAddr)
	env.registry.mint(2, seller, 0)
	env.registry.approve(2, escrowAddr)

	received := big.NewInt(0)

	offer, err := env.engine.MakeOffer(1, big.NewInt(1_000), seller)
	if err != nil {
		t.Fatalf("make offer: %v", err)
	}
	if err := env.engine.FillOffer(offer.ID, buyer, big.NewInt(1_000)); err != nil {
		t.Fatalf("fill offer: %v", err)
	}
	received.Add(received, big.NewInt(1_000))

	if _, err := env.engine.MakeAuction(2, big.NewInt(100), 4, seller); err != nil {
		t.Fatalf("make auction: %v", err)
	}
	if err := env.engine.MakeBid(2, first, big.NewInt(500)); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	received.Add(received, big.NewInt(500))
	if err := env.engine.MakeBid(2, second, big.NewInt(550)); err != nil {
		t.Fatalf("second bid: %v", err)
	}
	received.Add(received, big.NewInt(550))

	env.advance(5 * secondsPerHour)
	if err := env.engine.SettleAuction(2); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Ledger credits plus nothing else: the winning bid and the offer price
	// are fully distributed, the displaced bid is split 90/10.
	if got, want := env.state.ledgerTotal(), received; got.Cmp(want) != 0 {
		t.Fatalf("ledger total %s != received %s", got, want)
	}
}
