package ephem

import (
	"strconv"
	"strings"
)

// BodyInfo maps a NAIF body code to its names.
type BodyInfo struct {
	ID      int
	Name    string   // canonical NAIF name
	Aliases []string // alternative names and mission codes
}

// Natural bodies and barycenters.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
const (
	SSB               = 0
	MercuryBarycenter = 1
	VenusBarycenter   = 2
	EarthBarycenter   = 3
	MarsBarycenter    = 4
	JupiterBarycenter = 5
	SaturnBarycenter  = 6
	UranusBarycenter  = 7
	NeptuneBarycenter = 8
	PlutoBarycenter   = 9
	Sun               = 10
	Mercury           = 199
	Venus             = 299
	Moon              = 301
	Earth             = 399
	Mars              = 499
	Jupiter           = 599
	Saturn            = 699
	Uranus            = 799
	Neptune           = 899
	Pluto             = 999
)

// Common NAIF codes for spacecraft.
const (
	NAIFVoyager1         = -31
	NAIFVoyager2         = -32
	NAIFMarsOdyssey      = -53
	NAIFJuno             = -61
	NAIFMRO              = -74
	NAIFLRO              = -85
	NAIFParkerSolarProbe = -96
	NAIFNewHorizons      = -98
	NAIFEuropaClipper    = -159
	NAIFJWST             = -170
	NAIFMAVEN            = -202
	NAIFSolarOrbiter     = -144
	NAIFBepiColombo      = -121
	NAIFJUICE            = -28
	NAIFGAIA             = -123
	NAIFHubble           = -48
)

// Bodies is the canonical list of named bodies.
var Bodies = []BodyInfo{
	{ID: SSB, Name: "SOLAR SYSTEM BARYCENTER", Aliases: []string{"SSB", "SOLAR_SYSTEM_BARYCENTER"}},
	{ID: MercuryBarycenter, Name: "MERCURY BARYCENTER"},
	{ID: VenusBarycenter, Name: "VENUS BARYCENTER"},
	{ID: EarthBarycenter, Name: "EARTH BARYCENTER", Aliases: []string{"EMB", "EARTH-MOON BARYCENTER", "EARTH MOON BARYCENTER"}},
	{ID: MarsBarycenter, Name: "MARS BARYCENTER"},
	{ID: JupiterBarycenter, Name: "JUPITER BARYCENTER"},
	{ID: SaturnBarycenter, Name: "SATURN BARYCENTER"},
	{ID: UranusBarycenter, Name: "URANUS BARYCENTER"},
	{ID: NeptuneBarycenter, Name: "NEPTUNE BARYCENTER"},
	{ID: PlutoBarycenter, Name: "PLUTO BARYCENTER"},
	{ID: Sun, Name: "SUN"},
	{ID: Mercury, Name: "MERCURY"},
	{ID: Venus, Name: "VENUS"},
	{ID: Moon, Name: "MOON"},
	{ID: Earth, Name: "EARTH"},
	{ID: 401, Name: "PHOBOS"},
	{ID: 402, Name: "DEIMOS"},
	{ID: Mars, Name: "MARS"},
	{ID: 501, Name: "IO"},
	{ID: 502, Name: "EUROPA"},
	{ID: 503, Name: "GANYMEDE"},
	{ID: 504, Name: "CALLISTO"},
	{ID: Jupiter, Name: "JUPITER"},
	{ID: 606, Name: "TITAN"},
	{ID: 602, Name: "ENCELADUS"},
	{ID: Saturn, Name: "SATURN"},
	{ID: Uranus, Name: "URANUS"},
	{ID: 801, Name: "TRITON"},
	{ID: Neptune, Name: "NEPTUNE"},
	{ID: 901, Name: "CHARON"},
	{ID: Pluto, Name: "PLUTO"},

	{ID: NAIFVoyager1, Name: "VOYAGER 1", Aliases: []string{"VGR1", "VOYAGER_1"}},
	{ID: NAIFVoyager2, Name: "VOYAGER 2", Aliases: []string{"VGR2", "VOYAGER_2"}},
	{ID: NAIFMarsOdyssey, Name: "MARS ODYSSEY", Aliases: []string{"ODY"}},
	{ID: NAIFJuno, Name: "JUNO", Aliases: []string{"JNO"}},
	{ID: NAIFMRO, Name: "MARS RECON ORBITER", Aliases: []string{"MRO"}},
	{ID: NAIFLRO, Name: "LUNAR RECONNAISSANCE ORBITER", Aliases: []string{"LRO"}},
	{ID: NAIFParkerSolarProbe, Name: "PARKER SOLAR PROBE", Aliases: []string{"SPP", "PSP"}},
	{ID: NAIFNewHorizons, Name: "NEW HORIZONS", Aliases: []string{"NH", "NHPC"}},
	{ID: NAIFEuropaClipper, Name: "EUROPA CLIPPER", Aliases: []string{"EURC"}},
	{ID: NAIFJWST, Name: "JAMES WEBB SPACE TELESCOPE", Aliases: []string{"JWST", "WEBB"}},
	{ID: NAIFMAVEN, Name: "MAVEN", Aliases: []string{"MVN"}},
	{ID: NAIFSolarOrbiter, Name: "SOLAR ORBITER", Aliases: []string{"SOLO"}},
	{ID: NAIFBepiColombo, Name: "BEPICOLOMBO", Aliases: []string{"BEPI", "MPO"}},
	{ID: NAIFJUICE, Name: "JUICE"},
	{ID: NAIFGAIA, Name: "GAIA"},
	{ID: NAIFHubble, Name: "HUBBLE SPACE TELESCOPE", Aliases: []string{"HST", "HUBBLE"}},
}

// bodiesByID maps NAIF codes to body info for quick lookup.
var bodiesByID = func() map[int]BodyInfo {
	m := make(map[int]BodyInfo, len(Bodies))
	for _, b := range Bodies {
		m[b.ID] = b
	}
	return m
}()

// bodiesByName maps normalized names and aliases to body info.
var bodiesByName = func() map[string]BodyInfo {
	m := make(map[string]BodyInfo, len(Bodies)*2)
	for _, b := range Bodies {
		m[normalizeName(b.Name)] = b
		for _, alias := range b.Aliases {
			m[normalizeName(alias)] = b
		}
	}
	return m
}()

// normalizeName upper-cases a name and folds runs of blanks and
// underscores into one space, the way NAIF compares body names.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(strings.ToUpper(name), "_", " ")), " ")
}

// BodyByName returns body info for a name or alias (case-insensitive).
func BodyByName(name string) (BodyInfo, bool) {
	b, ok := bodiesByName[normalizeName(name)]
	return b, ok
}

// TargetID resolves a body name, alias or integer code.
func TargetID(s string) (int, bool) {
	if b, ok := BodyByName(s); ok {
		return b.ID, true
	}
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return id, true
	}
	return 0, false
}

// Name returns the canonical name of a body, or its code as text when the
// body has no name.
func Name(id int) string {
	if b, ok := bodiesByID[id]; ok {
		return b.Name
	}
	return strconv.Itoa(id)
}
