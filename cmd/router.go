package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/edgegate/dispatch/internal/handler"
	"github.com/edgegate/dispatch/internal/metrics"
)

func setupRouter(adminHandler *handler.AdminHandler, metricsCollector *metrics.Collector) *mux.Router {
	r := mux.NewRouter()

	adminHandler.RegisterRoutes(r)
	r.HandleFunc("/metrics", metricsCollector.Handler()).Methods(http.MethodGet)

	return r
}
