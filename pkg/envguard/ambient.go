package envguard

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// ambient holds the process-wide environment handle. It starts unguarded and
// can only move to the tainted state.
var ambient = struct {
	mu      sync.RWMutex
	source  Source
	tainted bool
}{source: processSource{}}

// Ambient returns the current handle to the process environment: the raw
// view before TaintAmbient and the guarded view afterwards.
func Ambient() Source {
	ambient.mu.RLock()
	defer ambient.mu.RUnlock()
	return ambient.source
}

// AmbientTainted reports whether TaintAmbient has been called.
func AmbientTainted() bool {
	ambient.mu.RLock()
	defer ambient.mu.RUnlock()
	return ambient.tainted
}

// TaintAmbient replaces the ambient handle with its guarded view. Every later
// Lookup through Ambient fails with a TaintViolation. It cannot be undone.
func TaintAmbient() {
	resolveMu.Lock()
	defer resolveMu.Unlock()
	taintAmbient()
}

func taintAmbient() {
	ambient.mu.Lock()
	defer ambient.mu.Unlock()

	if ambient.tainted {
		return
	}
	ambient.source = Taint(ambient.source)
	ambient.tainted = true
	log.Debug().Msg("Process environment tainted, direct reads are now rejected")
}
