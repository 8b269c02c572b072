// Package hplog is the structured-logging ambient used by hazard.Domain
// (refptr does not log). The teacher (nitro) carries no logger of its own -- mm/malloc.go
// tracks raw counters instead -- so this wraps go.uber.org/zap, grounded on
// its use in the retrieved m3/src/dbnode/storage/series package, as the
// enrichment this module draws from the wider example corpus.
package hplog

import "go.uber.org/zap"

// Logger is the narrow slice of *zap.Logger that hazard/refptr use. Keeping
// it an interface lets tests install a recording logger without pulling in
// zap's observer core.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
}

type sugared struct {
	s *zap.SugaredLogger
}

func (l sugared) Debugw(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l sugared) Warnw(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }

// FromZap adapts a *zap.Logger.
func FromZap(z *zap.Logger) Logger {
	return sugared{s: z.Sugar()}
}

type nop struct{}

func (nop) Debugw(string, ...any) {}
func (nop) Warnw(string, ...any)  {}

// Nop is the default logger: every hazard.Domain and refptr.AtomicShared
// domain starts with it installed, so logging is strictly opt-in.
func Nop() Logger { return nop{} }
