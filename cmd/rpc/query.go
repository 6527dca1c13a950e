package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Version writes the software version
func (s *Server) Version(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, SoftwareVersion, http.StatusOK)
}

// Transaction submits a signed validator transaction
func (s *Server) Transaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	raw := new(json.RawMessage)
	if ok := unmarshal(w, r, raw); !ok {
		return
	}
	txID, err := s.controller.SendTransaction(*raw)
	if err != nil {
		writeErr(w, err)
		return
	}
	write(w, txResult{TxID: txID}, http.StatusOK)
}

// Height responds with the confirmed tip height
func (s *Server) Height(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, heightResult{Height: s.controller.Height()}, http.StatusOK)
}

// Phase responds with the phase the next block falls into and the blocks until each window opens
func (s *Server) Phase(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.controller.FSM.PhaseInfo(), http.StatusOK)
}

// Candidates responds with the confirmed candidacies
func (s *Server) Candidates(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.controller.FSM.ListRegisteredCandidates(), http.StatusOK)
}

// Votes responds with the confirmed vote records
func (s *Server) Votes(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.controller.FSM.ListVotes(), http.StatusOK)
}

// State responds with the governance layout and the confirmed ledgers at the tip
func (s *Server) State(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.controller.FSM.ExportState(), http.StatusOK)
}

// Validators responds with the active validator set at the tip
func (s *Server) Validators(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.controller.FSM.ListActiveValidators(), http.StatusOK)
}

// BlockByHeight responds with the connected block at a height
func (s *Server) BlockByHeight(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(heightRequest)
	if ok := unmarshal(w, r, req); !ok {
		return
	}
	block, err := s.controller.LoadBlock(req.Height)
	if err != nil {
		writeErr(w, err)
		return
	}
	write(w, BlockResult{Hash: block.Hash(), Block: block}, http.StatusOK)
}

// Pending responds with the ids of the transactions waiting for a block
func (s *Server) Pending(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.controller.FSM.PendingTransactions(), http.StatusOK)
}
