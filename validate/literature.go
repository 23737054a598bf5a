package validate

// Literature-documented tidal intrusion lengths for major river systems,
// from peer-reviewed publications and government reports. Used as a coarse
// cross-check on the global classification; segment-to-river matching is a
// distance-band proxy, not a per-river trace (see LiteratureCheck).

// TidalExtent is one documented river system.
type TidalExtent struct {
	River    string  `json:"river"`
	ExtentKm float64 `json:"extent_km"`
	Source   string  `json:"source"`
}

// LiteratureTidalExtents returns the documented systems, grouped roughly by
// continent and ordered stably.
func LiteratureTidalExtents() []TidalExtent {
	return []TidalExtent{
		// South America
		{"Amazon", 900, "Gallo & Vinzon 2005"},
		{"Orinoco", 400, "Depetris & Paolini 1991"},
		{"Paraná", 320, "Nagy et al. 2002"},
		{"São Francisco", 75, "Knoppers et al. 1991"},

		// North America
		{"Mississippi", 500, "USGS 2018"},
		{"Columbia", 235, "Kukulka & Jay 2003"},
		{"Hudson", 250, "Geyer & Chant 2006"},
		{"Delaware", 215, "Sharp et al. 2009"},
		{"Chesapeake", 300, "Kemp et al. 2005"},
		{"St. Lawrence", 180, "Painchaud et al. 1987"},

		// Europe
		{"Rhine", 160, "Talke et al. 2021"},
		{"Thames", 90, "ABP Marine 2008"},
		{"Elbe", 142, "Kappenberg & Grabemann 2001"},
		{"Scheldt", 160, "Soetaert et al. 2006"},
		{"Loire", 110, "Etcheber et al. 2007"},
		{"Tagus", 80, "Bettencourt et al. 2003"},
		{"Gironde", 170, "Saari et al. 2008"},

		// Asia
		{"Yangtze", 700, "Chen et al. 2016"},
		{"Mekong", 500, "Gugliotta et al. 2019"},
		{"Ganges-Brahmaputra", 350, "Sarker et al. 2011"},
		{"Pearl", 180, "Harrison et al. 2008"},
		{"Red River", 60, "Le et al. 2007"},
		{"Chao Phraya", 140, "Buranapratheprat et al. 2002"},
		{"Irrawaddy", 290, "Furuichi et al. 2009"},

		// Africa
		{"Congo", 350, "Coynel et al. 2005"},
		{"Niger", 200, "Olomoda 2012"},
		{"Zambezi", 120, "Beilfuss 2012"},
		{"Nile", 180, "Nixon 2003"},

		// Australia/Oceania
		{"Murray-Darling", 95, "Webster 2007"},
		{"Fly", 250, "Wolanski et al. 1995"},

		// Additional well-documented systems
		{"Ems", 100, "Chernetsky et al. 2010"},
		{"Weser", 120, "Grabemann & Krause 2001"},
		{"Seine", 170, "Passy et al. 2016"},
		{"Potomac", 187, "Hagy et al. 2005"},
		{"San Francisco Bay", 150, "Cloern & Jassby 2012"},
	}
}
