package models

// Classification is the final per-segment output of the pipeline.
type Classification struct {
	SegmentID  string        `json:"segment_id"`
	Region     string        `json:"region"`
	Class      SalinityClass `json:"class"`
	Confidence Confidence    `json:"confidence"`
	Method     Method        `json:"method"`
	// Probability is the winning class probability from the model path;
	// validated labels report 1.0. Rule overrides keep the model's number.
	Probability float64 `json:"probability"`
	// DistToCoastKm is carried through for the rule layer and validation.
	DistToCoastKm float64 `json:"dist_to_coast_km"`
	// DegradedDistance flags segments whose distance came from the
	// latitude proxy rather than the outlet network.
	DegradedDistance bool `json:"degraded_distance,omitempty"`
}
