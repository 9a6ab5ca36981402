package rpc

import (
	"net/http"

	"nftmarket/market"
)

type makeAuctionParams struct {
	Caller        string `json:"caller"`
	TokenID       uint64 `json:"tokenId"`
	ReservePrice  string `json:"reservePrice"`
	DurationHours int64  `json:"durationHours"`
}

type cancelAuctionParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
}

type makeBidParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
	Amount  string `json:"amount"`
}

type settleAuctionParams struct {
	TokenID uint64 `json:"tokenId"`
}

type auctionResult struct {
	TokenID       uint64 `json:"tokenId"`
	Seller        string `json:"seller"`
	ReservePrice  string `json:"reservePrice"`
	EndTime       int64  `json:"endTime"`
	HighestBid    string `json:"highestBid"`
	HighestBidder string `json:"highestBidder,omitempty"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"createdAt"`
}

func auctionStatusString(status market.AuctionStatus) string {
	switch status {
	case market.AuctionActive:
		return "active"
	case market.AuctionSettled:
		return "settled"
	case market.AuctionCancelled:
		return "cancelled"
	}
	return "unknown"
}

func formatAuction(auction *market.Auction) auctionResult {
	result := auctionResult{
		TokenID:      auction.TokenID,
		Seller:       formatAddress(auction.Seller),
		ReservePrice: bigString(auction.ReservePrice),
		EndTime:      auction.EndTime,
		HighestBid:   bigString(auction.HighestBid),
		Status:       auctionStatusString(auction.Status),
		CreatedAt:    auction.CreatedAt,
	}
	if auction.HasBid() {
		result.HighestBidder = formatAddress(auction.HighestBidder)
	}
	return result
}

func (s *Server) handleMakeAuction(w http.ResponseWriter, req *RPCRequest) error {
	var params makeAuctionParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	reserve, err := parseAmount(params.ReservePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	auction, err := s.engine.MakeAuction(params.TokenID, reserve, params.DurationHours, caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, formatAuction(auction))
	return nil
}

func (s *Server) handleCancelAuction(w http.ResponseWriter, req *RPCRequest) error {
	var params cancelAuctionParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	if err := s.engine.CancelAuction(params.TokenID, caller); err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, map[string]bool{"cancelled": true})
	return nil
}

func (s *Server) handleMakeBid(w http.ResponseWriter, req *RPCRequest) error {
	var params makeBidParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	if err := s.engine.MakeBid(params.TokenID, caller, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	// The bid's attached value enters the payout reserve; displaced bids are
	// paid back out of it on claim.
	if err := s.payments.Deposit(amount); err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to reserve attached value", err.Error())
		return err
	}
	writeResult(w, req.ID, map[string]bool{"accepted": true})
	return nil
}

func (s *Server) handleSettleAuction(w http.ResponseWriter, req *RPCRequest) error {
	var params settleAuctionParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	if err := s.engine.SettleAuction(params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, map[string]bool{"settled": true})
	return nil
}

func (s *Server) handleListAuctions(w http.ResponseWriter, req *RPCRequest) error {
	auctions, err := s.engine.Auctions()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	results := make([]auctionResult, 0, len(auctions))
	for _, auction := range auctions {
		results = append(results, formatAuction(auction))
	}
	writeResult(w, req.ID, results)
	return nil
}
