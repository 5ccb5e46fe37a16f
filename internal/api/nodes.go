package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soochol/pyexec/internal/logging"
	"github.com/soochol/pyexec/internal/nodes"
	"github.com/soochol/pyexec/internal/script"
	"github.com/soochol/pyexec/internal/workflow"
)

// maxBodySize caps execute and callback request bodies.
const maxBodySize = 32 << 20 // 32 MB

type executeRequest struct {
	ID        workflow.NodeID `json:"id"`
	Inputs    map[string]any  `json:"inputs"`
	Workflow  json.RawMessage `json:"workflow"`
	Prompt    workflow.Prompt `json:"prompt"`
	DynPrompt any             `json:"dynprompt"`
}

func (s *Server) listObjectInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.nodes.Descriptors())
}

func (s *Server) getObjectInfo(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "class")
	n, err := s.nodes.Get(class)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]nodes.Descriptor{class: n.Descriptor()})
}

func (s *Server) executeNode(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "class")
	n, err := s.nodes.Get(class)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var req executeRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	wf, err := workflow.Decode(req.Workflow)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inv := &nodes.Invocation{
		UniqueID:  string(req.ID),
		Inputs:    normalizeMap(req.Inputs),
		Workflow:  wf,
		Prompt:    normalizePrompt(req.Prompt),
		DynPrompt: script.Normalize(req.DynPrompt),
	}
	logging.FromContext(r.Context()).Debug("executing node", "class", class, "id", inv.UniqueID)

	resp, err := n.Execute(r.Context(), inv)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, nodes.ErrMissingInput) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody decodes a JSON body keeping numbers exact.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return script.Normalize(m).(map[string]any)
}

func normalizePrompt(p workflow.Prompt) workflow.Prompt {
	for id, node := range p {
		node.Inputs = normalizeMap(node.Inputs)
		p[id] = node
	}
	return p
}
