package adapthttp

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"weightlog/internal/app"
)

type recordRequest struct {
	Date     *string  `json:"date"`
	Time     *string  `json:"time"`
	WeightKg *float64 `json:"weight_kg"`
}

func (req recordRequest) input() app.RecordInput {
	return app.RecordInput{Date: req.Date, Time: req.Time, WeightKg: req.WeightKg}
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body recordRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := s.records.Create(r.Context(), user.ID, body.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.instr != nil {
		s.instr.CounterRecordsCreated.Inc()
	}
	log.Debugf("weight record %d created for user %d", rec.ID, user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Weight record added successfully.",
		"record":  rec,
	})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}

	var body recordRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := s.records.Update(r.Context(), id, user.ID, body.input())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.instr != nil {
		s.instr.CounterRecordsUpdated.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Weight record updated successfully.",
		"record":  rec,
	})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}

	if err := s.records.Delete(r.Context(), id, user.ID); err != nil {
		writeDomainError(w, err)
		return
	}

	if s.instr != nil {
		s.instr.CounterRecordsDeleted.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Weight record deleted successfully.",
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := s.records.ListByOwner(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"weightRecords": records,
	})
}
