package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)

	r.HandleFunc("/", s.dashboard()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.status()).Methods(http.MethodGet)
	api.HandleFunc("/health", s.health()).Methods(http.MethodGet)
	api.HandleFunc("/deals", s.dealsRecent()).Methods(http.MethodGet)

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(s.authMw)
	adminAPI.HandleFunc("/scan", s.scanTrigger()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/query/{productKey}/enable", s.queryEnable(true)).Methods(http.MethodPost)
	adminAPI.HandleFunc("/query/{productKey}/disable", s.queryEnable(false)).Methods(http.MethodPost)
	adminAPI.PathPrefix("").Handler(http.NotFoundHandler())

	return r
}
