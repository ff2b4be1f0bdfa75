package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"dealfinder/internal/database"
)

func (s Server) scanTrigger() http.HandlerFunc {
	type response struct {
		Triggered bool   `json:"triggered"`
		Message   string `json:"message"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if s.Scanner.Trigger() {
			s.Logger.Info("scanTrigger: Scan cycle triggered")
			s.writeJSONResponse(w, response{Triggered: true, Message: "scan cycle triggered"}, http.StatusAccepted)
			return
		}
		s.writeJSONResponse(w, response{Triggered: false, Message: "scan cycle already pending"}, http.StatusConflict)
	}
}

func (s Server) queryEnable(enabled bool) http.HandlerFunc {
	type response struct {
		ProductKey string `json:"product_key"`
		Enabled    bool   `json:"enabled"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		productKey := mux.Vars(r)["productKey"]
		if err := s.DB.SearchQuerySetEnabled(r.Context(), productKey, enabled); err != nil {
			if errors.Is(err, database.ErrSearchQueryNotFound) {
				http.Error(w, "query not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("queryEnable: Error setting enabled=%t, ProductKey: %s, err: %v", enabled, productKey, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("queryEnable: SearchQuery enabled=%t, ProductKey: %s", enabled, productKey)
		s.writeJSONResponse(w, response{ProductKey: productKey, Enabled: enabled}, http.StatusOK)
	}
}
