// Package timeline turns a raw execution log into a presentation-ready
// timeline.
//
// The pipeline is linear and pure:
//
//	FromTable -> Normalize -> Filter -> Sequence -> {DetectOverlaps, Aggregate}
//
// Normalize runs once per loaded dataset and produces an immutable Dataset.
// Build runs the remaining stages for one Selection (day + period) and
// returns a fresh View; ordinals, display ids and categories exist only on
// that View and are recomputed on every selection.
//
// Bad rows never fail the pipeline: they are dropped and counted in Report.
// Only a bad table shape (missing required columns) is an error.
package timeline
