package adapthttp

import (
	"errors"
	"net/http"

	"weightlog/internal/chart"
)

func (s *Server) handleWeightChart(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	modeParam := r.URL.Query().Get("mode")
	if modeParam == "" {
		modeParam = string(chart.ModeAll)
	}
	mode, err := chart.ParseMode(modeParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bounds := chart.Bounds{
		Start: r.URL.Query().Get("start"),
		End:   r.URL.Query().Get("end"),
	}

	points, err := s.charts.Series(r.Context(), user.ID, mode, bounds)
	if errors.Is(err, chart.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":  mode,
		"items": points,
	})
}
