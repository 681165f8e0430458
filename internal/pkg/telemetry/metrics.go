package telemetry

// Span and attribute names used for instrumentation.
const (
	SpanSimplify = "clip.simplify"
	SpanClip     = "clip.run"
	SpanFilter   = "clip.filter"

	AttrRegion    = "clip.region"
	AttrTolerance = "clip.tolerance"
	AttrPointsIn  = "clip.points_in"
	AttrPointsOut = "clip.points_out"
	AttrSections  = "clip.sections"
	AttrKept      = "clip.sections_kept"
)
