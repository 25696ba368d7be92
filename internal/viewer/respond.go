package viewer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/banshee-data/jawviewer/internal/monitoring"
	"github.com/banshee-data/jawviewer/internal/store"
)

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Opsf("failed to encode json response: %v", err)
	}
}

// writeJSONError writes {"error": msg}. The empty store also carries
// "empty": true so clients can tell it apart from a bad request.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	body := map[string]interface{}{"error": msg}
	if msg == store.ErrNoPairs.Error() {
		body["empty"] = true
	}
	writeJSON(w, status, body)
}

// writeError maps err onto a status code.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNoPairs):
		writeJSONError(w, http.StatusNotFound, store.ErrNoPairs.Error())
	case errors.Is(err, errBadIndex), errors.Is(err, errBadCaseID):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

var (
	errBadIndex  = errors.New("invalid 'index' parameter")
	errBadCaseID = errors.New("invalid 'case_id' parameter")
)

// indexParam reads the optional "index" query parameter.
func indexParam(r *http.Request) (idx int, ok bool, err error) {
	raw := r.URL.Query().Get("index")
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errBadIndex
	}
	return v, true, nil
}

// caseIDParam reads the optional "case_id" query parameter.
func caseIDParam(r *http.Request) (id int, ok bool, err error) {
	raw := r.URL.Query().Get("case_id")
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false, errBadCaseID
	}
	return v, true, nil
}

// pairFor resolves the pair a view request refers to: the "index"
// parameter clamped to the store, or the cursor position.
func (s *Server) pairFor(r *http.Request) (int, store.Pair, error) {
	st := s.cursor.Store()
	idx, ok, err := indexParam(r)
	if err != nil {
		return 0, store.Pair{}, err
	}
	if !ok {
		idx = s.cursor.Index()
	}
	p, found := st.Get(idx)
	if !found {
		return 0, store.Pair{}, store.ErrNoPairs
	}
	return st.Clamp(idx), p, nil
}
