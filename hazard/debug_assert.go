//go:build hazarddebug

package hazard

const debugEnabled = true

// debugAssert panics on a broken contract (spec §7: "Fatal: contract
// violations"). Only compiled in with -tags hazarddebug, since checking
// every retire/reclaim in production builds would defeat the purpose of a
// lock-free fast path.
func debugAssert(cond bool, msg string) {
	if !cond {
		panic("hazard: contract violation: " + msg)
	}
}
