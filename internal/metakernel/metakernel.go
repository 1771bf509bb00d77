// Package metakernel reads TOML manifests listing the kernels, leap-second
// table and body constants to load together.
//
//	leapseconds = "naif0012.tls"
//	kernels = ["de440s.bsp", "earth_latest.bpc"]
//
//	[bodies.399]
//	mu_km3_s2 = 398600.435436
//	radii_km = [6378.1366, 6378.1366, 6356.7519]
//
//	[sites.dss14]
//	body = 399
//	frame = "ITRF93"
//	lat_deg = 35.4259
//	lon_deg = -116.8895
//	alt_km = 1.002
package metakernel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// ErrNoKernels is returned for a manifest that lists no kernels.
var ErrNoKernels = errors.New("manifest lists no kernels")

// BodySpec overrides the constants of one body.
type BodySpec struct {
	Name  string    `toml:"name"`
	GM    float64   `toml:"mu_km3_s2"`
	Radii []float64 `toml:"radii_km"`
}

// SiteSpec places a named ground site on a body. Body defaults to Earth.
type SiteSpec struct {
	Body   int     `toml:"body"`
	Frame  string  `toml:"frame"`
	LatDeg float64 `toml:"lat_deg"`
	LonDeg float64 `toml:"lon_deg"`
	AltKm  float64 `toml:"alt_km"`
}

// Manifest is a parsed meta-kernel. Paths are absolute after Load.
type Manifest struct {
	Path        string              `toml:"-"`
	Leapseconds string              `toml:"leapseconds"`
	Kernels     []string            `toml:"kernels"`
	Bodies      map[string]BodySpec `toml:"bodies"`
	Sites       map[string]SiteSpec `toml:"sites"`
}

// Load reads and validates the manifest at path. Relative paths inside it
// resolve against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading meta-kernel: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m.Path = abs
	m.resolve(filepath.Dir(abs))
	return m, nil
}

// Parse decodes a manifest without resolving its paths.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Kernels) == 0 {
		return nil, ErrNoKernels
	}
	if _, err := m.BodyConstants(); err != nil {
		return nil, err
	}
	for name, spec := range m.Sites {
		if spec.LatDeg < -90 || spec.LatDeg > 90 {
			return nil, fmt.Errorf("sites.%s: latitude out of range", name)
		}
	}
	return &m, nil
}

// Site returns the named site from the [sites] tables.
func (m *Manifest) Site(name string) (ephem.Site, bool) {
	if m == nil {
		return ephem.Site{}, false
	}
	spec, ok := m.Sites[name]
	if !ok {
		return ephem.Site{}, false
	}
	body := spec.Body
	if body == 0 {
		body = ephem.Earth
	}
	return ephem.Site{
		Name:     name,
		Body:     body,
		Frame:    spec.Frame,
		Geodetic: astro.Geodetic{LatDeg: spec.LatDeg, LonDeg: spec.LonDeg, AltKm: spec.AltKm},
	}, true
}

func (m *Manifest) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	m.Leapseconds = abs(m.Leapseconds)
	for i, k := range m.Kernels {
		m.Kernels[i] = abs(k)
	}
}

// BodyConstants converts the [bodies] tables, keyed by NAIF code.
func (m *Manifest) BodyConstants() (map[int]frames.Body, error) {
	if len(m.Bodies) == 0 {
		return nil, nil
	}
	out := make(map[int]frames.Body, len(m.Bodies))
	for key, spec := range m.Bodies {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("bodies.%s: not a NAIF code", key)
		}
		if spec.GM < 0 {
			return nil, fmt.Errorf("bodies.%s: negative mu_km3_s2", key)
		}
		b := frames.Body{ID: id, Name: spec.Name, GM: spec.GM}
		switch len(spec.Radii) {
		case 0:
		case 1:
			r := spec.Radii[0]
			b.Shape = astro.Ellipsoid{SemiMajorKm: r, SemiMinorKm: r, PolarKm: r}
		case 3:
			b.Shape = astro.Ellipsoid{SemiMajorKm: spec.Radii[0], SemiMinorKm: spec.Radii[1], PolarKm: spec.Radii[2]}
		default:
			return nil, fmt.Errorf("bodies.%s: radii_km needs 1 or 3 values, got %d", key, len(spec.Radii))
		}
		if b.Name == "" {
			b.Name = ephem.Name(id)
		}
		out[id] = b
	}
	return out, nil
}

// BodyIDs returns the overridden body codes in ascending order.
func (m *Manifest) BodyIDs() []int {
	ids := make([]int, 0, len(m.Bodies))
	for key := range m.Bodies {
		if id, err := strconv.Atoi(key); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Options returns the almanac options the manifest implies, reading the
// leap-second kernel if one is named.
func (m *Manifest) Options() ([]ephem.Option, error) {
	var opts []ephem.Option
	if m.Leapseconds != "" {
		ls, err := LoadLeapSeconds(m.Leapseconds)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ephem.WithLeapSeconds(ls))
	}
	bodies, err := m.BodyConstants()
	if err != nil {
		return nil, err
	}
	if bodies != nil {
		opts = append(opts, ephem.WithBodyConstants(bodies))
	}
	return opts, nil
}

// LoadLeapSeconds reads a NAIF text leap-second kernel.
func LoadLeapSeconds(path string) (*timescale.LeapSeconds, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading leap seconds: %w", err)
	}
	defer f.Close()
	ls, err := timescale.ParseLSK(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ls, nil
}

// Open builds an almanac from the manifest at path and loads its kernels.
// extra options apply after the manifest's own.
func Open(ctx context.Context, path string, extra ...ephem.Option) (*ephem.Almanac, *Manifest, error) {
	m, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	opts, err := m.Options()
	if err != nil {
		return nil, nil, err
	}
	a, err := ephem.New(append(opts, extra...)...)
	if err != nil {
		return nil, nil, err
	}
	if _, err := a.LoadKernels(ctx, m.Kernels); err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return a, m, nil
}
