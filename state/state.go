// Package state persists marketplace records on a key-value database. It
// implements the engine's State interface; all transition rules stay in the
// engine, this layer only encodes, stores and retrieves.
package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/holiman/uint256"

	"nftmarket/market"
	"nftmarket/storage"
)

const (
	offerKeyPrefix   = "market/offer/"
	auctionKeyPrefix = "market/auction/"
	fundsKeyPrefix   = "market/funds/"
	offerCountKey    = "market/offer-count"
)

// Manager reads and writes marketplace state on the supplied database.
type Manager struct {
	db storage.Database
}

// NewManager constructs a state manager backed by db.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedOffer struct {
	ID        uint64 `json:"id"`
	TokenID   uint64 `json:"tokenId"`
	Seller    string `json:"seller"`
	Price     string `json:"price"`
	Fulfilled bool   `json:"fulfilled"`
	Cancelled bool   `json:"cancelled"`
	CreatedAt int64  `json:"createdAt"`
}

type storedAuction struct {
	TokenID       uint64 `json:"tokenId"`
	Seller        string `json:"seller"`
	ReservePrice  string `json:"reservePrice"`
	EndTime       int64  `json:"endTime"`
	HighestBid    string `json:"highestBid"`
	HighestBidder string `json:"highestBidder"`
	Status        uint8  `json:"status"`
	CreatedAt     int64  `json:"createdAt"`
}

func offerKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", offerKeyPrefix, id))
}

func auctionKey(tokenID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", auctionKeyPrefix, tokenID))
}

func fundsKey(addr [20]byte) []byte {
	return []byte(fundsKeyPrefix + hex.EncodeToString(addr[:]))
}

func encodeAddr(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}

func decodeAddr(s string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("state: bad address encoding: %w", err)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("state: address must be 20 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func encodeAmount(v *big.Int) (string, error) {
	if v == nil {
		return "0", nil
	}
	if v.Sign() < 0 {
		return "", fmt.Errorf("state: negative amount")
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return "", fmt.Errorf("state: balance overflow")
	}
	return v.String(), nil
}

func decodeAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("state: bad amount encoding: %q", s)
	}
	return v, nil
}

// OfferPut stores the offer record.
func (m *Manager) OfferPut(offer *market.Offer) error {
	if offer == nil {
		return fmt.Errorf("state: nil offer")
	}
	price, err := encodeAmount(offer.Price)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(storedOffer{
		ID:        offer.ID,
		TokenID:   offer.TokenID,
		Seller:    encodeAddr(offer.Seller),
		Price:     price,
		Fulfilled: offer.Fulfilled,
		Cancelled: offer.Cancelled,
		CreatedAt: offer.CreatedAt,
	})
	if err != nil {
		return err
	}
	return m.db.Put(offerKey(offer.ID), raw)
}

// OfferGet loads the offer with the given id.
func (m *Manager) OfferGet(id uint64) (*market.Offer, bool, error) {
	raw, err := m.db.Get(offerKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rec storedOffer
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	offer, err := rec.toOffer()
	if err != nil {
		return nil, false, err
	}
	return offer, true, nil
}

func (rec storedOffer) toOffer() (*market.Offer, error) {
	seller, err := decodeAddr(rec.Seller)
	if err != nil {
		return nil, err
	}
	price, err := decodeAmount(rec.Price)
	if err != nil {
		return nil, err
	}
	return &market.Offer{
		ID:        rec.ID,
		TokenID:   rec.TokenID,
		Seller:    seller,
		Price:     price,
		Fulfilled: rec.Fulfilled,
		Cancelled: rec.Cancelled,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// OfferCount returns the number of offers ever created.
func (m *Manager) OfferCount() (uint64, error) {
	raw, err := m.db.Get([]byte(offerCountKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("state: bad offer count encoding: %w", err)
	}
	return count, nil
}

// SetOfferCount persists the offer sequence counter.
func (m *Manager) SetOfferCount(count uint64) error {
	return m.db.Put([]byte(offerCountKey), []byte(strconv.FormatUint(count, 10)))
}

// AuctionPut stores the auction record under its token id.
func (m *Manager) AuctionPut(auction *market.Auction) error {
	if auction == nil {
		return fmt.Errorf("state: nil auction")
	}
	if !auction.Status.Valid() {
		return fmt.Errorf("state: invalid auction status: %d", auction.Status)
	}
	reserve, err := encodeAmount(auction.ReservePrice)
	if err != nil {
		return err
	}
	highest, err := encodeAmount(auction.HighestBid)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(storedAuction{
		TokenID:       auction.TokenID,
		Seller:        encodeAddr(auction.Seller),
		ReservePrice:  reserve,
		EndTime:       auction.EndTime,
		HighestBid:    highest,
		HighestBidder: encodeAddr(auction.HighestBidder),
		Status:        uint8(auction.Status),
		CreatedAt:     auction.CreatedAt,
	})
	if err != nil {
		return err
	}
	return m.db.Put(auctionKey(auction.TokenID), raw)
}

// AuctionGet loads the latest auction record for the token.
func (m *Manager) AuctionGet(tokenID uint64) (*market.Auction, bool, error) {
	raw, err := m.db.Get(auctionKey(tokenID))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rec storedAuction
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	auction, err := rec.toAuction()
	if err != nil {
		return nil, false, err
	}
	return auction, true, nil
}

func (rec storedAuction) toAuction() (*market.Auction, error) {
	seller, err := decodeAddr(rec.Seller)
	if err != nil {
		return nil, err
	}
	bidder, err := decodeAddr(rec.HighestBidder)
	if err != nil {
		return nil, err
	}
	reserve, err := decodeAmount(rec.ReservePrice)
	if err != nil {
		return nil, err
	}
	highest, err := decodeAmount(rec.HighestBid)
	if err != nil {
		return nil, err
	}
	return &market.Auction{
		TokenID:       rec.TokenID,
		Seller:        seller,
		ReservePrice:  reserve,
		EndTime:       rec.EndTime,
		HighestBid:    highest,
		HighestBidder: bidder,
		Status:        market.AuctionStatus(rec.Status),
		CreatedAt:     rec.CreatedAt,
	}, nil
}

// AuctionList returns every stored auction record in token order.
func (m *Manager) AuctionList() ([]*market.Auction, error) {
	out := make([]*market.Auction, 0)
	err := m.db.Iterate([]byte(auctionKeyPrefix), func(_, value []byte) error {
		var rec storedAuction
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		auction, err := rec.toAuction()
		if err != nil {
			return err
		}
		out = append(out, auction)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FundsGet returns the stored ledger balance for an account, zero when the
// account has never been credited.
func (m *Manager) FundsGet(addr [20]byte) (*big.Int, error) {
	raw, err := m.db.Get(fundsKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeAmount(string(raw))
}

// FundsPut stores the ledger balance for an account. Balances must be
// non-negative and fit in 256 bits.
func (m *Manager) FundsPut(addr [20]byte, amount *big.Int) error {
	encoded, err := encodeAmount(amount)
	if err != nil {
		return err
	}
	return m.db.Put(fundsKey(addr), []byte(encoded))
}
