package server

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"dealfinder/internal/database"
)

func (s Server) status() http.HandlerFunc {
	type queryStatus struct {
		ProductKey  string    `json:"product_key"`
		SearchText  string    `json:"search_text"`
		Enabled     bool      `json:"enabled"`
		TotalFound  int       `json:"total_found"`
		LastChecked time.Time `json:"last_checked"`
	}
	type response struct {
		Queries        []queryStatus `json:"queries"`
		TrackedTotal   int64         `json:"tracked_total"`
		TrackedLast24h int64         `json:"tracked_last_24h"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := s.DB.SearchQueriesFindAll(r.Context())
		if err != nil {
			s.Logger.Errorf("status: Error getting SearchQueries, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		total, err := s.DB.TrackedItemsCount(r.Context())
		if err != nil {
			s.Logger.Errorf("status: Error counting TrackedItems, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		last24h, err := s.DB.TrackedItemsCountSince(r.Context(), time.Now().Add(-24*time.Hour))
		if err != nil {
			s.Logger.Errorf("status: Error counting recent TrackedItems, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		resp := response{
			Queries:        make([]queryStatus, 0, len(qs)),
			TrackedTotal:   total,
			TrackedLast24h: last24h,
		}
		for _, q := range qs {
			resp.Queries = append(resp.Queries, queryStatus{
				ProductKey:  q.ProductKey,
				SearchText:  q.SearchText,
				Enabled:     q.Enabled,
				TotalFound:  q.TotalFound,
				LastChecked: q.LastChecked.Time(),
			})
		}
		s.writeJSONResponse(w, resp, http.StatusOK)
	}
}

func (s Server) health() http.HandlerFunc {
	type response struct {
		Status string `json:"status"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			s.Logger.Errorf("health: DB ping failed, err: %v", err)
			s.writeJSONResponse(w, response{Status: "unhealthy"}, http.StatusServiceUnavailable)
			return
		}
		s.writeJSONResponse(w, response{Status: "ok"}, http.StatusOK)
	}
}

func (s Server) dealsRecent() http.HandlerFunc {
	type response struct {
		Deals []database.TrackedItem `json:"deals"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if l := r.URL.Query().Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 1 || n > 100 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		tis, err := s.DB.TrackedItemsFindRecent(r.Context(), limit)
		if err != nil {
			s.Logger.Errorf("dealsRecent: Error getting recent TrackedItems, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJSONResponse(w, response{Deals: tis}, http.StatusOK)
	}
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>dealfinder</title></head>
<body>
<h1>dealfinder</h1>
<p>{{.TrackedTotal}} deals tracked, {{.TrackedLast24h}} in the last 24h, {{len .Queries}} queries.</p>
<table border="1" cellpadding="4">
<tr><th>Product</th><th>Enabled</th><th>Total found</th><th>Last checked</th></tr>
{{range .Queries}}<tr><td>{{.ProductKey}}</td><td>{{.Enabled}}</td><td>{{.TotalFound}}</td><td>{{.LastChecked}}</td></tr>
{{end}}</table>
<h2>Recent deals</h2>
<table border="1" cellpadding="4">
<tr><th>Title</th><th>Price</th><th>Profit</th><th>Quality</th><th>Notified</th></tr>
{{range .Deals}}<tr><td><a href="{{.URL}}">{{.Title}}</a></td><td>{{printf "%.2f" .Price}}</td><td>{{printf "%.2f" .Profit}}</td><td>{{.Quality}}</td><td>{{.NotifiedAt.Time}}</td></tr>
{{end}}</table>
</body>
</html>
`))

func (s Server) dashboard() http.HandlerFunc {
	type dashboardData struct {
		Queries        []database.SearchQuery
		Deals          []database.TrackedItem
		TrackedTotal   int64
		TrackedLast24h int64
	}

	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := s.DB.SearchQueriesFindAll(r.Context())
		if err != nil {
			s.Logger.Errorf("dashboard: Error getting SearchQueries, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		deals, err := s.DB.TrackedItemsFindRecent(r.Context(), 20)
		if err != nil {
			s.Logger.Errorf("dashboard: Error getting recent TrackedItems, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		total, err := s.DB.TrackedItemsCount(r.Context())
		if err != nil {
			s.Logger.Errorf("dashboard: Error counting TrackedItems, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		last24h, err := s.DB.TrackedItemsCountSince(r.Context(), time.Now().Add(-24*time.Hour))
		if err != nil {
			s.Logger.Errorf("dashboard: Error counting recent TrackedItems, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := dashboardTmpl.Execute(w, dashboardData{
			Queries:        qs,
			Deals:          deals,
			TrackedTotal:   total,
			TrackedLast24h: last24h,
		}); err != nil {
			s.Logger.Errorf("dashboard: Error executing template, err: %v", err)
		}
	}
}
