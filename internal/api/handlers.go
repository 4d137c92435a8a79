package api

import (
	"encoding/json"
	"net/http"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
)

type accountResponse struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic"`
}

type balanceRequest struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic"`
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Status  string `json:"status"`
}

type transferRequest struct {
	From     string      `json:"from"`
	Mnemonic string      `json:"mnemonic"`
	To       string      `json:"to"`
	Amount   json.Number `json:"amount"`
	Note     string      `json:"note"`
}

type transferResponse struct {
	TxID   string `json:"tx_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string      `json:"status"`
	NodeStatus *nodeStatus `json:"node_status,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type nodeStatus struct {
	LastRound          uint64 `json:"last_round"`
	TimeSinceLastRound uint64 `json:"time_since_last_round"`
}

// handleCreateAccount generates a fresh account and hands back its address
// and controlling mnemonic
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	acct := crypto.GenerateAccount()

	mnemo, err := mnemonic.FromPrivateKey(acct.PrivateKey)
	if err != nil {
		s.logger.Errorw("Error creating account", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create account"})

		return
	}

	s.writeJSON(w, http.StatusOK, accountResponse{
		Address:  acct.Address.String(),
		Mnemonic: mnemo,
	})
}

// handleBalance returns the balance of an account, gated on the caller
// proving control of it through the matching mnemonic
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})

		return
	}

	if req.Address == "" || req.Mnemonic == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing address or mnemonic"})

		return
	}

	if !validateMnemonic(req.Mnemonic, req.Address) {
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "Invalid mnemonic for address"})

		return
	}

	info, err := s.algod.AccountInformation(req.Address).Do(r.Context())
	if err != nil {
		s.logger.Errorw("Error getting balance", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to retrieve balance"})

		return
	}

	status := "offline"
	if info.Status == "Online" {
		status = "active"
	}

	s.writeJSON(w, http.StatusOK, balanceResponse{
		Address: req.Address,
		Balance: info.Amount,
		Status:  status,
	})
}

// handleTransfer signs and submits a payment transaction on behalf of the
// caller, then waits a bounded number of rounds for confirmation
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})

		return
	}

	if req.From == "" || req.Mnemonic == "" || req.To == "" || req.Amount == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields"})

		return
	}

	amount, err := req.Amount.Int64()
	if err != nil || amount <= 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid amount"})

		return
	}

	if !validateMnemonic(req.Mnemonic, req.From) {
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "Invalid mnemonic for sender address"})

		return
	}

	sk, err := mnemonic.ToPrivateKey(req.Mnemonic)
	if err != nil {
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "Invalid mnemonic for sender address"})

		return
	}

	sp, err := s.algod.SuggestedParams().Do(r.Context())
	if err != nil {
		s.logger.Errorw("Error fetching suggested params", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to transfer funds"})

		return
	}

	var note []byte
	if req.Note != "" {
		note = []byte(req.Note)
	}

	txn, err := transaction.MakePaymentTxn(req.From, req.To, uint64(amount), note, "", sp)
	if err != nil {
		s.logger.Errorw("Error building transaction", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to transfer funds"})

		return
	}

	txid, stx, err := crypto.SignTransaction(sk, txn)
	if err != nil {
		s.logger.Errorw("Error signing transaction", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to transfer funds"})

		return
	}

	if _, err := s.algod.SendRawTransaction(stx).Do(r.Context()); err != nil {
		s.logger.Errorw("Error submitting transaction", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to transfer funds"})

		return
	}

	s.metrics.TransfersSubmitted.Add(1)

	if _, err := transaction.WaitForConfirmation(s.algod, txid, s.config.API.ConfirmationRounds, r.Context()); err != nil {
		s.writeJSON(w, http.StatusAccepted, transferResponse{
			TxID:   txid,
			Status: "pending",
			Error:  err.Error(),
		})

		return
	}

	s.writeJSON(w, http.StatusOK, transferResponse{
		TxID:   txid,
		Status: "confirmed",
	})
}

// handleHealth proxies the node's status, reporting unhealthy when the
// node cannot be reached
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.algod.Status().Do(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "unhealthy",
			Error:  err.Error(),
		})

		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{
		Status: "healthy",
		NodeStatus: &nodeStatus{
			LastRound:          status.LastRound,
			TimeSinceLastRound: status.TimeSinceLastRound,
		},
	})
}

// validateMnemonic checks that the mnemonic is well formed and controls the
// given address
func validateMnemonic(mnemo, address string) bool {
	sk, err := mnemonic.ToPrivateKey(mnemo)
	if err != nil {
		return false
	}

	acct, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return false
	}

	return acct.Address.String() == address
}
