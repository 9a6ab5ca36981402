package rpc

import (
	"net/http"

	"nftmarket/market"
)

type makeOfferParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
	Price   string `json:"price"`
}

type updateOfferParams struct {
	Caller  string `json:"caller"`
	OfferID uint64 `json:"offerId"`
	Price   string `json:"price"`
}

type fillOfferParams struct {
	Caller  string `json:"caller"`
	OfferID uint64 `json:"offerId"`
	Amount  string `json:"amount"`
}

type cancelOfferParams struct {
	Caller  string `json:"caller"`
	OfferID uint64 `json:"offerId"`
}

type getOfferParams struct {
	OfferID uint64 `json:"offerId"`
}

type offerResult struct {
	ID        uint64 `json:"id"`
	TokenID   uint64 `json:"tokenId"`
	Seller    string `json:"seller"`
	Price     string `json:"price"`
	Fulfilled bool   `json:"fulfilled"`
	Cancelled bool   `json:"cancelled"`
	CreatedAt int64  `json:"createdAt"`
}

func formatOffer(offer *market.Offer) offerResult {
	return offerResult{
		ID:        offer.ID,
		TokenID:   offer.TokenID,
		Seller:    formatAddress(offer.Seller),
		Price:     bigString(offer.Price),
		Fulfilled: offer.Fulfilled,
		Cancelled: offer.Cancelled,
		CreatedAt: offer.CreatedAt,
	}
}

func (s *Server) handleMakeOffer(w http.ResponseWriter, req *RPCRequest) error {
	var params makeOfferParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	offer, err := s.engine.MakeOffer(params.TokenID, price, caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, formatOffer(offer))
	return nil
}

func (s *Server) handleUpdateOffer(w http.ResponseWriter, req *RPCRequest) error {
	var params updateOfferParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	if err := s.engine.UpdateOffer(params.OfferID, price, caller); err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	offer, err := s.engine.GetOffer(params.OfferID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, formatOffer(offer))
	return nil
}

func (s *Server) handleFillOffer(w http.ResponseWriter, req *RPCRequest) error {
	var params fillOfferParams
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
	if err := s.engine.FillOffer(params.OfferID, caller, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	// The attached value enters the payout reserve once the fill commits.
	if err := s.payments.Deposit(amount); err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to reserve attached value", err.Error())
		return err
	}
	offer, err := s.engine.GetOffer(params.OfferID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, formatOffer(offer))
	return nil
}

func (s *Server) handleCancelOffer(w http.ResponseWriter, req *RPCRequest) error {
	var params cancelOfferParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	if err := s.engine.CancelOffer(params.OfferID, caller); err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, map[string]bool{"cancelled": true})
	return nil
}

func (s *Server) handleGetOffer(w http.ResponseWriter, req *RPCRequest) error {
	var params getOfferParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	offer, err := s.engine.GetOffer(params.OfferID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, formatOffer(offer))
	return nil
}

func (s *Server) handleOfferCount(w http.ResponseWriter, req *RPCRequest) error {
	count, err := s.engine.OfferCount()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
	return nil
}
