// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides a small leveled, module-scoped logger on top of
// zap, mirroring klaytn's log.NewModuleLogger convention: every package
// obtains its own logger tagged with a subsystem name so log lines can be
// filtered per component without changing call sites.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Subsystem names used as the "mod" field on every log line emitted by a
// module-scoped logger. Mirrors klaytn's log.StorageDatabase et al.
type Subsystem string

const (
	JournalDB     Subsystem = "journaldb"
	StateTrie     Subsystem = "statetrie"
	StorageDB     Subsystem = "storagedb"
	BlockChain    Subsystem = "blockchain"
	Consensus     Subsystem = "consensus"
	Work          Subsystem = "work"
	Sync          Subsystem = "sync"
	Accounts      Subsystem = "accounts"
)

var (
	baseOnce sync.Once
	base     *zap.Logger
)

func root() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), zap.InfoLevel)
		base = zap.New(core)
	})
	return base
}

// Logger is the per-module handle returned by NewModuleLogger. Field pairs
// follow the go-ethereum/klaytn convention: alternating key, value
// arguments rather than a map.
type Logger struct {
	mod string
	l   *zap.SugaredLogger
}

func NewModuleLogger(mod Subsystem) Logger {
	return Logger{mod: string(mod), l: root().Sugar().With("mod", string(mod))}
}

func (lg Logger) Trace(msg string, kv ...interface{}) { lg.l.Debugw(msg, kv...) }
func (lg Logger) Debug(msg string, kv ...interface{}) { lg.l.Debugw(msg, kv...) }
func (lg Logger) Info(msg string, kv ...interface{})  { lg.l.Infow(msg, kv...) }
func (lg Logger) Warn(msg string, kv ...interface{})  { lg.l.Warnw(msg, kv...) }
func (lg Logger) Error(msg string, kv ...interface{}) { lg.l.Errorw(msg, kv...) }

// Crit logs at fatal severity and terminates the process. Reserved for the
// "fatal DB corruption" disposition in spec.md §7 (negatively-referenced
// hash on journal inject) and similar unrecoverable invariant violations,
// matching klaytn db_manager.go's use of logger.Crit for config
// invariant failures.
func (lg Logger) Crit(msg string, kv ...interface{}) {
	lg.l.Fatalw(msg, kv...)
}

// New returns an anonymous, unscoped logger for call sites that don't
// belong to a single subsystem (e.g. top-level wiring code).
func New() Logger {
	return Logger{l: root().Sugar()}
}
