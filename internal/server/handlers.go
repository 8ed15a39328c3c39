package server

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	gojson "github.com/goccy/go-json"
	"github.com/mourao666/cassandra-sim/dht"
	"github.com/mourao666/cassandra-sim/hyperplane"
	"github.com/mourao666/cassandra-sim/signature"
	"github.com/mourao666/cassandra-sim/storage"
)

// maxRandomTokens caps GET /v1/tokens/random?count=.
const maxRandomTokens = 1024

type apiResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// tokenView is the JSON form of a token.
type tokenView struct {
	Token dht.Token `json:"token"`
	Hex   string    `json:"hex"`
	Bits  int       `json:"bits"`
}

func viewOf(t dht.Token) tokenView {
	return tokenView{Token: t, Hex: hex.EncodeToString(t.Bytes()), Bits: t.Signature().Len()}
}

// keyRequest carries a partition key either as a vector or as raw bytes.
type keyRequest struct {
	Vector []float64 `json:"vector,omitempty"`
	Key    []byte    `json:"key,omitempty"`
}

func (k keyRequest) partitionKey() []byte {
	if len(k.Vector) > 0 {
		return hyperplane.EncodeKey(k.Vector)
	}
	return k.Key
}

type midpointRequest struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type rowRequest struct {
	keyRequest
	Value []byte `json:"value"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, map[string]any{
		"status":           "healthy",
		"preserves_order":  s.p.PreservesOrder(),
		"ring_configured":  s.ring != nil,
		"store_configured": s.rows != nil,
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decode(w, r, &req) {
		return
	}
	tok, err := s.p.TokenFor(req.partitionKey())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondSuccess(w, viewOf(tok))
}

func (s *Server) handleRandomTokens(w http.ResponseWriter, r *http.Request) {
	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRandomTokens {
			respondError(w, "count must be between 1 and "+strconv.Itoa(maxRandomTokens), http.StatusBadRequest)
			return
		}
		count = n
	}

	views := make([]tokenView, count)
	for i := range views {
		views[i] = viewOf(s.p.RandomToken())
	}
	respondSuccess(w, views)
}

func (s *Server) handleMidpoint(w http.ResponseWriter, r *http.Request) {
	var req midpointRequest
	if !decode(w, r, &req) {
		return
	}
	f := s.p.TokenFactory()
	left, err := f.FromString(req.Left)
	if err != nil {
		respondErr(w, err)
		return
	}
	right, err := f.FromString(req.Right)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondSuccess(w, viewOf(s.p.Midpoint(left, right)))
}

func (s *Server) handleOwnership(w http.ResponseWriter, r *http.Request) {
	if s.ring == nil {
		respondError(w, "no ring configured", http.StatusServiceUnavailable)
		return
	}
	own, err := s.p.DescribeOwnership(r.Context(), s.ring.SortedTokens())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondSuccess(w, own)
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	if s.rows == nil {
		respondError(w, "no store configured", http.StatusServiceUnavailable)
		return
	}
	ref := tableRef(r)
	if err := s.rows.CreateTable(r.Context(), ref); err != nil {
		respondErr(w, err)
		return
	}
	respondSuccess(w, map[string]any{"keyspace": ref.Keyspace, "table": ref.Table, "created": true})
}

func (s *Server) handlePutRow(w http.ResponseWriter, r *http.Request) {
	if s.rows == nil {
		respondError(w, "no store configured", http.StatusServiceUnavailable)
		return
	}
	var req rowRequest
	if !decode(w, r, &req) {
		return
	}
	pk := req.partitionKey()
	if len(pk) == 0 {
		respondError(w, "vector or key is required", http.StatusBadRequest)
		return
	}
	tok, err := s.rows.Put(r.Context(), tableRef(r), pk, req.Value)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, apiResponse{Status: "success", Data: viewOf(tok)})
}

func tableRef(r *http.Request) dht.TableRef {
	return dht.TableRef{Keyspace: chi.URLParam(r, "ks"), Table: chi.URLParam(r, "table")}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := gojson.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, hyperplane.ErrKeyShape),
		errors.Is(err, signature.ErrMalformed),
		errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnknownTable),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dht.ErrUndefinedOwnership):
		return http.StatusConflict
	case errors.Is(err, dht.ErrNoCatalog),
		errors.Is(err, storage.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondSuccess(w http.ResponseWriter, data any) {
	respond(w, http.StatusOK, apiResponse{Status: "success", Data: data})
}

func respondErr(w http.ResponseWriter, err error) {
	respondError(w, err.Error(), statusOf(err))
}

func respondError(w http.ResponseWriter, message string, code int) {
	respond(w, code, apiResponse{Status: "error", Error: message})
}

func respond(w http.ResponseWriter, code int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = gojson.NewEncoder(w).Encode(body)
}
