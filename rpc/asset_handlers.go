package rpc

import "net/http"

type mintAssetParams struct {
	Caller     string `json:"caller"`
	URI        string `json:"uri"`
	RoyaltyBps uint32 `json:"royaltyBps"`
}

type approveAssetParams struct {
	Caller   string `json:"caller"`
	TokenID  uint64 `json:"tokenId"`
	Operator string `json:"operator"`
}

type assetParams struct {
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleMintAsset(w http.ResponseWriter, req *RPCRequest) error {
	var params mintAssetParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	tokenID, err := s.registry.Mint(caller, params.URI, params.RoyaltyBps)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "mint rejected", err.Error())
		return err
	}
	writeResult(w, req.ID, map[string]uint64{"tokenId": tokenID})
	return nil
}

func (s *Server) handleApproveAsset(w http.ResponseWriter, req *RPCRequest) error {
	var params approveAssetParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	operator, err := decodeAddress(params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid operator address", err.Error())
		return nil
	}
	if err := s.registry.Approve(params.TokenID, caller, operator); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "approval rejected", err.Error())
		return err
	}
	writeResult(w, req.ID, map[string]bool{"approved": true})
	return nil
}

func (s *Server) handleGetAssetOwner(w http.ResponseWriter, req *RPCRequest) error {
	var params assetParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	owner, err := s.registry.OwnerOf(params.TokenID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeMarketNotFound, "unknown token", err.Error())
		return err
	}
	writeResult(w, req.ID, map[string]string{"owner": formatAddress(owner)})
	return nil
}

func (s *Server) handleGetAssetURI(w http.ResponseWriter, req *RPCRequest) error {
	var params assetParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	uri, err := s.registry.TokenURI(params.TokenID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeMarketNotFound, "unknown token", err.Error())
		return err
	}
	writeResult(w, req.ID, map[string]string{"uri": uri})
	return nil
}
