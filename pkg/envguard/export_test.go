package envguard

// ResetAmbient restores the unguarded process handle between specs.
func ResetAmbient() {
	ambient.mu.Lock()
	defer ambient.mu.Unlock()
	ambient.source = processSource{}
	ambient.tainted = false
}

// Normalize exposes normalize to the external test package.
var Normalize = normalize
