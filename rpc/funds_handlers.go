package rpc

import "net/http"

type userFundsParams struct {
	Address string `json:"address"`
}

type claimFundsParams struct {
	Caller string `json:"caller"`
}

type depositParams struct {
	Amount string `json:"amount"`
}

type balanceParams struct {
	Address string `json:"address"`
}

func (s *Server) handleUserFunds(w http.ResponseWriter, req *RPCRequest) error {
	var params userFundsParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	addr, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return nil
	}
	balance, err := s.engine.UserFunds(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, map[string]string{
		"address": params.Address,
		"funds":   bigString(balance),
	})
	return nil
}

func (s *Server) handleClaimFunds(w http.ResponseWriter, req *RPCRequest) error {
	var params claimFundsParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return nil
	}
	amount, err := s.engine.ClaimFunds(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return err
	}
	writeResult(w, req.ID, map[string]string{
		"claimed": bigString(amount),
	})
	return nil
}

func (s *Server) handleDeposit(w http.ResponseWriter, req *RPCRequest) error {
	var params depositParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	if err := s.payments.Deposit(amount); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "deposit rejected", err.Error())
		return err
	}
	writeResult(w, req.ID, map[string]string{
		"reserve": bigString(s.payments.Reserve()),
	})
	return nil
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) error {
	var params balanceParams
	if err := singleParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return nil
	}
	addr, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return nil
	}
	writeResult(w, req.ID, map[string]string{
		"address": params.Address,
		"balance": bigString(s.payments.Balance(addr)),
	})
	return nil
}
