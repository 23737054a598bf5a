package coastal

// Coastal context extraction.
//
// A global set of shoreline observation sites carries morphology, wave/tide
// statistics and land-use fractions. Segments close enough to the coast for
// these indicators to mean anything (within the configured context distance)
// are matched to their nearest site; everything farther inland keeps the
// whole indicator group missing. A segment that is near the coast but has no
// site within the match radius also stays missing. Missing is always NaN,
// never zero: a zero significant-wave-height is a real observation.

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"tidal-atlas/models"
	"tidal-atlas/spatial"
)

// Prefix marks coastal indicator columns in the feature schema.
const Prefix = "gcc_"

// NumericIndicators is the closed set of per-site numeric indicators. The
// order is the schema order.
var NumericIndicators = []string{
	"z_peak_max_1km", // max elevation within 1 km of shoreline
	"he",             // hinterland elevation
	"ev",             // elevation variance
	"ns",             // nearshore slope
	"bs",             // backshore slope
	"cs",             // coastal slope
	"x_shoreline",    // shoreline position
	"doc",            // depth of closure
	"tr_zone_width",  // transition zone width
	"lu_trees",
	"lu_crop",
	"lu_built",
	"lu_water",
	"lu_wet",
	"lu_mangr",
	"swh_p50", // significant wave height
	"swh_p95",
	"pp1d_p50", // peak wave period
	"mhhw",     // mean higher high water
	"mllw",     // mean lower low water
	"ssl_p95",  // storm surge level
	"wl_rp10_mean",
	"t2m_p50",
	"t2m_p95",
	"tp_p50",
	"tp_p95",
}

// Fixed categorical vocabularies. Unlisted coast types fold into Other so
// the one-hot layout never varies between regions.
var (
	CoastTypes = []string{"Other", "Rocky", "Sandy", "Vegetated"}
	VegTypes   = []string{"Mangroves", "Salt_marshes"}
)

// Site is one shoreline observation point.
type Site struct {
	Lat        float64            `json:"lat"`
	Lon        float64            `json:"lon"`
	Indicators map[string]float64 `json:"indicators"`
	CoastType  string             `json:"coast_type"`
	VegType    string             `json:"veg_type"`
}

// LoadSites reads the global site set.
func LoadSites(dataDir string) ([]Site, error) {
	path := filepath.Join(dataDir, "coastal_sites.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.MissingInputError{Path: path, Variable: "coastal sites"}
	}
	var sites []Site
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("error parsing %s: %s", path, err)
	}
	return sites, nil
}

// Extractor matches segments to their nearest shoreline site.
type Extractor struct {
	sites          []Site
	tree           *spatial.KDTree
	matchRadiusDeg float64
	maxDistKm      float64
}

// NewExtractor indexes the site set. matchRadiusDeg bounds the site match;
// maxDistKm bounds which segments get matched at all.
func NewExtractor(sites []Site, matchRadiusDeg, maxDistKm float64) *Extractor {
	points := make([]spatial.Point, len(sites))
	for i, s := range sites {
		points[i] = spatial.Point{Lat: s.Lat, Lon: s.Lon, Index: i}
	}
	return &Extractor{
		sites:          sites,
		tree:           spatial.NewKDTree(points),
		matchRadiusDeg: matchRadiusDeg,
		maxDistKm:      maxDistKm,
	}
}

// Columns returns the full coastal column group in schema order.
func Columns() []string {
	cols := make([]string, 0, len(NumericIndicators)+len(CoastTypes)+len(VegTypes)+1)
	for _, name := range NumericIndicators {
		cols = append(cols, Prefix+name)
	}
	cols = append(cols, Prefix+"tidal_range")
	for _, ct := range CoastTypes {
		cols = append(cols, Prefix+"coast_type_"+ct)
	}
	for _, vt := range VegTypes {
		cols = append(cols, Prefix+"veg_type_"+vt)
	}
	return cols
}

// Features produces the coastal column group for one segment centroid.
// distToCoastKm decides whether matching is attempted at all.
func (e *Extractor) Features(lat, lon, distToCoastKm float64) map[string]float64 {
	out := missingGroup()

	if distToCoastKm > e.maxDistKm {
		return out
	}

	point, _, ok := e.tree.NearestWithin(lat, lon, e.matchRadiusDeg)
	if !ok {
		return out
	}
	site := e.sites[point.Index]

	for _, name := range NumericIndicators {
		if v, present := site.Indicators[name]; present {
			out[Prefix+name] = v
		}
	}

	mhhw, hasHigh := site.Indicators["mhhw"]
	mllw, hasLow := site.Indicators["mllw"]
	if hasHigh && hasLow {
		out[Prefix+"tidal_range"] = mhhw - mllw
	}

	coastType := site.CoastType
	if !contains(CoastTypes, coastType) {
		coastType = "Other"
	}
	for _, ct := range CoastTypes {
		out[Prefix+"coast_type_"+ct] = oneHot(ct == coastType)
	}

	for _, vt := range VegTypes {
		out[Prefix+"veg_type_"+vt] = oneHot(vt == site.VegType)
	}

	return out
}

func missingGroup() map[string]float64 {
	out := make(map[string]float64, len(NumericIndicators)+len(CoastTypes)+len(VegTypes)+1)
	for _, col := range Columns() {
		out[col] = math.NaN()
	}
	return out
}

func oneHot(set bool) float64 {
	if set {
		return 1
	}
	return 0
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
