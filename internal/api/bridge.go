package api

import (
	"errors"
	"net/http"

	"github.com/soochol/pyexec/internal/bridge"
	"github.com/soochol/pyexec/internal/logging"
	"github.com/soochol/pyexec/internal/script"
	"github.com/soochol/pyexec/internal/workflow"
)

type jsResultRequest struct {
	ID     workflow.NodeID `json:"id"`
	Result any             `json:"result"`
}

// deliverJSResult hands a browser-computed result to the node call waiting
// under the posted id.
func (s *Server) deliverJSResult(w http.ResponseWriter, r *http.Request) {
	if s.runtime == nil || s.runtime.Bridge == nil {
		http.Error(w, "bridge not configured", http.StatusServiceUnavailable)
		return
	}

	var req jsResultRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := s.runtime.Bridge.Deliver(string(req.ID), script.Normalize(req.Result)); err != nil {
		if errors.Is(err, bridge.ErrNotWaiting) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logging.FromContext(r.Context()).Debug("browser result delivered", "id", string(req.ID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}
