// Package modkit provides module wiring and core deps
package modkit

import (
	"trackergen/internal/modkit/repokit"
	"trackergen/internal/platform/config"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG and CH are optional; modules fall back to in-process state when they are nil
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// HasPG reports whether a postgres pool was wired
func (d Deps) HasPG() bool { return d.PG != nil }

// HasCH reports whether a clickhouse conn was wired
func (d Deps) HasCH() bool { return d.CH != nil }
