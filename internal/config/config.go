// Package config carries the handful of process-wide toggles that
// change the pipeline's output formatting and id numbering without
// changing its semantics.
package config

// NormalizeFreshNames collapses generated existential/universal names
// (t14-style) to a stable placeholder for golden-test determinism.
var NormalizeFreshNames = false

// StartExistentialID is the first id value the existential/universal
// generator will use for a given pipeline run; callers set this before
// invoking synth to avoid id collisions across independently-compiled
// units sharing a downstream id space.
var StartExistentialID uint64 = 0
