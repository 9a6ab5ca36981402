// Package registry provides the asset-registry collaborator consumed by the
// marketplace engine: ownership, approval-to-transfer, custody transfer and
// royalty lookup for uniquely-owned assets.
package registry

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

var (
	ErrTokenNotFound    = errors.New("registry: token does not exist")
	ErrNotTokenOwner    = errors.New("registry: caller does not own token")
	ErrRoyaltyTooHigh   = errors.New("registry: royalty bps out of range")
	errTransferByHolder = errors.New("registry: transfer caller is not owner nor approved")
)

const maxRoyaltyBps = 10_000

type token struct {
	owner    [20]byte
	creator  [20]byte
	uri      string
	royalty  uint32 // basis points of the sale price, paid to the creator
	approved [20]byte
}

// Collection is an in-memory non-fungible asset registry. Token ids are
// assigned sequentially starting at 1; each token keeps its creator and a
// royalty percentage fixed at mint time.
type Collection struct {
	mu     sync.Mutex
	tokens map[uint64]*token
	seq    uint64
}

// NewCollection constructs an empty collection.
func NewCollection() *Collection {
	return &Collection{tokens: make(map[uint64]*token)}
}

// Mint creates a new token owned by the minter. The royalty, expressed in
// basis points of any future sale price, accrues to the minter as creator.
func (c *Collection) Mint(owner [20]byte, uri string, royaltyBps uint32) (uint64, error) {
	if royaltyBps > maxRoyaltyBps {
		return 0, ErrRoyaltyTooHigh
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.tokens[c.seq] = &token{
		owner:   owner,
		creator: owner,
		uri:     uri,
		royalty: royaltyBps,
	}
	return c.seq, nil
}

// OwnerOf returns the current owner of the token.
func (c *Collection) OwnerOf(tokenID uint64) ([20]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[tokenID]
	if !ok {
		return [20]byte{}, ErrTokenNotFound
	}
	return tok.owner, nil
}

// TokenURI returns the metadata URI recorded at mint time.
func (c *Collection) TokenURI(tokenID uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[tokenID]
	if !ok {
		return "", ErrTokenNotFound
	}
	return tok.uri, nil
}

// Approve grants the operator the right to take custody of the token. Only
// the current owner may approve. Approval clears on transfer.
func (c *Collection) Approve(tokenID uint64, owner, operator [20]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[tokenID]
	if !ok {
		return ErrTokenNotFound
	}
	if tok.owner != owner {
		return ErrNotTokenOwner
	}
	tok.approved = operator
	return nil
}

// IsApprovedOrOwner reports whether the caller may move the token.
func (c *Collection) IsApprovedOrOwner(tokenID uint64, caller [20]byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[tokenID]
	if !ok {
		return false, ErrTokenNotFound
	}
	return tok.owner == caller || (tok.approved != ([20]byte{}) && tok.approved == caller), nil
}

// TransferCustody moves the token from one holder to another. The from party
// must be the owner or the approved operator; approval clears afterwards.
func (c *Collection) TransferCustody(tokenID uint64, from, to [20]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[tokenID]
	if !ok {
		return ErrTokenNotFound
	}
	if tok.owner != from && tok.approved != from {
		return fmt.Errorf("%w: token %d", errTransferByHolder, tokenID)
	}
	tok.owner = to
	tok.approved = [20]byte{}
	return nil
}

// RoyaltyInfo computes the creator royalty owed on a sale at the supplied
// price: floor(price * royaltyBps / 10000), paid to the token's creator.
func (c *Collection) RoyaltyInfo(tokenID uint64, salePrice *big.Int) ([20]byte, *big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[tokenID]
	if !ok {
		return [20]byte{}, nil, ErrTokenNotFound
	}
	if salePrice == nil || salePrice.Sign() <= 0 {
		return tok.creator, big.NewInt(0), nil
	}
	amount := new(big.Int).Mul(salePrice, new(big.Int).SetUint64(uint64(tok.royalty)))
	amount.Div(amount, big.NewInt(maxRoyaltyBps))
	return tok.creator, amount, nil
}
