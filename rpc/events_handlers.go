package rpc

import (
	"net/http"

	"nftmarket/events"
)

type listEventsParams struct {
	Limit int `json:"limit,omitempty"`
}

type eventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func formatEventRecord(rec *events.Record) eventResult {
	return eventResult{Type: rec.Type, Attributes: rec.Attributes}
}

func (s *Server) handleListEvents(w http.ResponseWriter, req *RPCRequest) error {
	params := listEventsParams{}
	if len(req.Params) > 0 {
		if err := singleParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return nil
		}
	}
	records := s.bus.Recent(params.Limit)
	results := make([]eventResult, 0, len(records))
	for _, rec := range records {
		results = append(results, formatEventRecord(rec))
	}
	writeResult(w, req.ID, results)
	return nil
}
