// Package server is the operational surface: a read-only dashboard and
// status/health/deals endpoints over the store, plus authenticated admin
// endpoints to trigger a scan or toggle queries. It is a thin layer; the
// engineering lives in internal/scan.
package server

import (
	"github.com/lestrrat-go/jwx/v2/jwk"

	"dealfinder/internal/database"
	"dealfinder/internal/scan"
)

type Server struct {
	DB             database.Database
	Scanner        *scan.Scanner
	Logger         logger
	AdminSecretKey jwk.Key
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}
