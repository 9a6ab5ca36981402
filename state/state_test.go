package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"nftmarket/market"
	"nftmarket/storage"
)

func testAddr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db)
}

func TestOfferRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	_, ok, err := mgr.OfferGet(1)
	require.NoError(t, err)
	require.False(t, ok)

	offer := &market.Offer{
		ID:        1,
		TokenID:   42,
		Seller:    testAddr(0x01),
		Price:     big.NewInt(1_000),
		CreatedAt: 1_700_000_000,
	}
	require.NoError(t, mgr.OfferPut(offer))

	loaded, ok, err := mgr.OfferGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, offer, loaded)

	offer.Fulfilled = true
	require.NoError(t, mgr.OfferPut(offer))
	loaded, _, err = mgr.OfferGet(1)
	require.NoError(t, err)
	require.True(t, loaded.Fulfilled)
}

func TestOfferCountPersists(t *testing.T) {
	mgr := newTestManager(t)

	count, err := mgr.OfferCount()
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, mgr.SetOfferCount(7))
	count, err = mgr.OfferCount()
	require.NoError(t, err)
	require.Equal(t, uint64(7), count)
}

func TestAuctionRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	auction := &market.Auction{
		TokenID:       9,
		Seller:        testAddr(0x01),
		ReservePrice:  big.NewInt(500),
		EndTime:       1_700_010_000,
		HighestBid:    big.NewInt(550),
		HighestBidder: testAddr(0x02),
		Status:        market.AuctionActive,
		CreatedAt:     1_700_000_000,
	}
	require.NoError(t, mgr.AuctionPut(auction))

	loaded, ok, err := mgr.AuctionGet(9)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, auction, loaded)

	_, ok, err = mgr.AuctionGet(10)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuctionPutRejectsInvalidStatus(t *testing.T) {
	mgr := newTestManager(t)
	auction := &market.Auction{
		TokenID:      9,
		ReservePrice: big.NewInt(1),
		HighestBid:   big.NewInt(0),
		Status:       market.AuctionStatus(99),
	}
	require.Error(t, mgr.AuctionPut(auction))
}

func TestAuctionListOrderedByToken(t *testing.T) {
	mgr := newTestManager(t)
	for _, tokenID := range []uint64{30, 2, 11} {
		require.NoError(t, mgr.AuctionPut(&market.Auction{
			TokenID:      tokenID,
			Seller:       testAddr(0x01),
			ReservePrice: big.NewInt(100),
			HighestBid:   big.NewInt(0),
			Status:       market.AuctionActive,
		}))
	}
	auctions, err := mgr.AuctionList()
	require.NoError(t, err)
	require.Len(t, auctions, 3)
	require.Equal(t, uint64(2), auctions[0].TokenID)
	require.Equal(t, uint64(11), auctions[1].TokenID)
	require.Equal(t, uint64(30), auctions[2].TokenID)
}

func TestFundsRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	addr := testAddr(0xAB)

	balance, err := mgr.FundsGet(addr)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	require.NoError(t, mgr.FundsPut(addr, big.NewInt(1_234)))
	balance, err = mgr.FundsGet(addr)
	require.NoError(t, err)
	require.Equal(t, "1234", balance.String())

	require.NoError(t, mgr.FundsPut(addr, big.NewInt(0)))
	balance, err = mgr.FundsGet(addr)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestFundsPutRejectsOutOfRangeAmounts(t *testing.T) {
	mgr := newTestManager(t)
	addr := testAddr(0xAB)

	require.Error(t, mgr.FundsPut(addr, big.NewInt(-1)))

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	require.Error(t, mgr.FundsPut(addr, tooBig))

	max := new(big.Int).Sub(tooBig, big.NewInt(1))
	require.NoError(t, mgr.FundsPut(addr, max))
	balance, err := mgr.FundsGet(addr)
	require.NoError(t, err)
	require.Equal(t, max.String(), balance.String())
}
