//go:build !hazarddebug

package hazard

// debugEnabled is false in normal builds; debugAssert compiles away to
// nothing on the hot retire/scan path. Mirrors nitro's mm.Debug
// package-level switch (mm/malloc.go), translated to a build tag because
// these checks run inside tight CAS loops.
const debugEnabled = false

func debugAssert(cond bool, msg string) {}
