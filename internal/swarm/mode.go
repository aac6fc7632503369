package swarm

import (
	"github.com/boshu2/omc/internal/contextcollect"
)

// acquireModeMarker claims the "swarm" mode marker via
// internal/contextcollect's mode-exclusion registry, per SPEC_FULL.md
// §4.8 (this was the original primitive; it now delegates to the
// generalized package so every mode, swarm included, shares one
// implementation).
func acquireModeMarker(mode string) (bool, error) {
	return contextcollect.AcquireMode(mode)
}

// releaseModeMarker releases the mode marker, if held.
func releaseModeMarker(mode string) error {
	return contextcollect.ReleaseMode(mode)
}
