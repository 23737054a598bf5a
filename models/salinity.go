package models

// Venice System salinity classification.
//
// River segments are classified into five salinity regimes by practical
// salinity (PSU):
//
//	Freshwater   < 0.5
//	Oligohaline  [0.5, 5)
//	Mesohaline   [5, 18)
//	Polyhaline   [18, 30)
//	Euhaline     >= 30
//
// Class boundaries follow the Venice System for the classification of marine
// waters according to salinity (1958). Every classification carries a
// confidence band and a method tag describing how the class was assigned:
// directly from a measured salinity, by one of the two trained models, or by
// a physical-plausibility rule override.

// SalinityClass is a Venice System salinity regime.
type SalinityClass string

const (
	Freshwater  SalinityClass = "Freshwater"
	Oligohaline SalinityClass = "Oligohaline"
	Mesohaline  SalinityClass = "Mesohaline"
	Polyhaline  SalinityClass = "Polyhaline"
	Euhaline    SalinityClass = "Euhaline"
)

// VeniceOrder lists the classes from fresh to marine. Reports and summaries
// iterate this slice so output ordering stays deterministic.
var VeniceOrder = []SalinityClass{Freshwater, Oligohaline, Mesohaline, Polyhaline, Euhaline}

// ClassifySalinity maps a practical salinity in PSU onto its Venice class.
func ClassifySalinity(psu float64) SalinityClass {
	switch {
	case psu < 0.5:
		return Freshwater
	case psu < 5.0:
		return Oligohaline
	case psu < 18.0:
		return Mesohaline
	case psu < 30.0:
		return Polyhaline
	default:
		return Euhaline
	}
}

// IsEstuarine reports whether a class indicates measurable marine influence,
// i.e. anything above Freshwater.
func (c SalinityClass) IsEstuarine() bool {
	return c != Freshwater && c != ""
}

// maxTDSMgPerL bounds the TDS→salinity conversion. Beyond brine strength the
// linear factor no longer holds and the value is treated as unusable.
const maxTDSMgPerL = 60000.0

// SalinityFromTDS converts total dissolved solids (mg/L) to practical
// salinity using the freshwater-calibrated factor PSU = TDS/640. The second
// return is false when the input is outside the formula's valid range.
func SalinityFromTDS(tdsMgPerL float64) (float64, bool) {
	if tdsMgPerL < 0 || tdsMgPerL > maxTDSMgPerL {
		return 0, false
	}
	return tdsMgPerL / 640.0, true
}

// Confidence is the qualitative band attached to each classification.
type Confidence string

const (
	ConfidenceHigh    Confidence = "HIGH"
	ConfidenceMedium  Confidence = "MEDIUM"
	ConfidenceLow     Confidence = "LOW"
	ConfidenceVeryLow Confidence = "VERY_LOW"
)

// ConfidenceFromProbability bands the winning class probability.
func ConfidenceFromProbability(p float64) Confidence {
	switch {
	case p > 0.75:
		return ConfidenceHigh
	case p > 0.60:
		return ConfidenceMedium
	case p > 0.45:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Method records how a segment's final class was assigned.
type Method string

const (
	// MethodValidated marks segments classified directly from a measured
	// salinity observation rather than a model prediction.
	MethodValidated Method = "GlobSalt_Validated"
	// MethodMLCoastal and MethodMLInland mark the two model paths of the
	// hybrid architecture.
	MethodMLCoastal Method = "ML_Coastal"
	MethodMLInland  Method = "ML_Inland"
	// MethodRuleDistance marks the hard physical override: estuarine
	// predictions far beyond any plausible tidal intrusion.
	MethodRuleDistance Method = "Rule_Based_Distance"
	// MethodRuleHybrid marks the soft override: low-confidence estuarine
	// predictions in the implausible-but-possible distance band.
	MethodRuleHybrid Method = "Rule_Based_Hybrid"
)
