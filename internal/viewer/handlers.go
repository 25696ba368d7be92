package viewer

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/jawviewer/internal/monitoring"
	"github.com/banshee-data/jawviewer/internal/render"
	"github.com/banshee-data/jawviewer/internal/store"
)

// PairSummary is one entry of GET /api/pairs. The *File fields name the
// surface files; the *Source fields name the classifier tier that painted
// each surface.
type PairSummary struct {
	Index       int    `json:"index"`
	CaseID      int    `json:"case_id"`
	UpperFile   string `json:"upper_file"`
	LowerFile   string `json:"lower_file"`
	UpperPoints int    `json:"upper_points"`
	LowerPoints int    `json:"lower_points"`
	UpperSource string `json:"upper_source"`
	LowerSource string `json:"lower_source"`
}

// PairList is the body of GET /api/pairs.
type PairList struct {
	Count int           `json:"count"`
	Pairs []PairSummary `json:"pairs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	pairs := s.cursor.Store().Pairs()
	out := PairList{Count: len(pairs), Pairs: make([]PairSummary, 0, len(pairs))}
	for i, p := range pairs {
		out.Pairs = append(out.Pairs, PairSummary{
			Index:       i,
			CaseID:      p.CaseID,
			UpperFile:   p.Upper.File,
			LowerFile:   p.Lower.File,
			UpperPoints: p.Upper.Mesh.NumPoints(),
			LowerPoints: p.Lower.Mesh.NumPoints(),
			UpperSource: p.Upper.Source.String(),
			LowerSource: p.Lower.Source.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cursor.State())
}

// handleStep serves POST /api/nav/next and /api/nav/prev.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	d, ok := store.ParseDirection(r.PathValue("direction"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown direction %q", r.PathValue("direction")))
		return
	}
	st := s.cursor.Step(d)
	monitoring.Tracef("nav %s -> %d/%d", d, st.Index, st.Count)
	writeJSON(w, http.StatusOK, st)
}

// handleJump serves POST /api/nav/jump?index=N and
// POST /api/nav/jump?case_id=C. Exactly one of the two is required; a bad
// value or an unknown case leaves the cursor where it is.
func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	idx, hasIndex, err := indexParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	caseID, hasCase, err := caseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch {
	case hasIndex && hasCase:
		writeJSONError(w, http.StatusBadRequest, "give either 'index' or 'case_id', not both")
	case hasCase:
		st, ok := s.cursor.JumpToCase(caseID)
		if !ok {
			writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no pair for case %d", caseID))
			return
		}
		monitoring.Tracef("nav jump case %d -> %d/%d", caseID, st.Index, st.Count)
		writeJSON(w, http.StatusOK, st)
	case hasIndex:
		st := s.cursor.JumpTo(idx)
		monitoring.Tracef("nav jump %d -> %d/%d", idx, st.Index, st.Count)
		writeJSON(w, http.StatusOK, st)
	default:
		writeJSONError(w, http.StatusBadRequest, "missing 'index' or 'case_id' parameter")
	}
}

// handleRuns lists recorded collection runs, newest first.
// Query params:
//
//	limit (optional, default 20)
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeJSONError(w, http.StatusNotFound, "no catalogue configured")
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	runs, err := s.catalog.ListRuns(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list runs: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleSnapshot serves GET /view.png?index=N.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	idx, p, err := s.pairFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts := s.render
	opts.Title = fmt.Sprintf("Pair: %d [%d/%d]", p.CaseID, idx+1, s.cursor.Store().Len())

	var buf bytes.Buffer
	if err := render.Snapshot(&buf, p, opts); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// indexPage is the data for the index template.
type indexPage struct {
	Label string
	State store.State
}

// Label formats the position the way the page header shows it.
func Label(st store.State, caseID int) string {
	if st.Empty {
		return "No pairs"
	}
	return fmt.Sprintf("Pair: %d [%d/%d]", caseID, st.Index+1, st.Count)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.cursor.State()
	page := indexPage{State: st, Label: Label(st, 0)}
	if st.CaseID != nil {
		page.Label = Label(st, *st.CaseID)
	}
	var buf bytes.Buffer
	if err := s.templates.Execute(&buf, "index.html", page); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render page: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
