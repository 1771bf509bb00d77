package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/interp"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// circular is a body on a circular orbit in the J2000 x-y plane.
type circular struct {
	target, center int
	radius         float64 // km
	period         float64 // s
	phase          float64 // rad at J2000
}

func (c circular) state(et float64) [6]float64 {
	w := 2 * math.Pi / c.period
	a := w*et + c.phase
	s, co := math.Sincos(a)
	return [6]float64{c.radius * co, c.radius * s, 0, -c.radius * w * s, c.radius * w * co, 0}
}

const synthDay = 86400.0

var (
	synthEMB   = circular{ephem.EarthBarycenter, ephem.SSB, 1.496e8, 365.25636 * synthDay, 1.75}
	synthEarth = circular{ephem.Earth, ephem.EarthBarycenter, 4671, 27.321662 * synthDay, math.Pi}
	synthMoon  = circular{ephem.Moon, ephem.EarthBarycenter, 379700, 27.321662 * synthDay, 0}
	synthMars  = circular{ephem.MarsBarycenter, ephem.SSB, 2.2794e8, 686.98 * synthDay, -0.6}
)

// synthSPK builds a demonstration kernel that exercises the Chebyshev,
// Lagrange and Hermite segment types.
func synthSPK(start, end float64, order binary.ByteOrder) ([]byte, error) {
	b := daf.NewBuilder(daf.KindSPK, order)
	b.InternalName = "LS-EPHEM SYNTHETIC PLANETS"
	b.Comments = strings.Join([]string{
		"Synthetic ephemeris written by ls-ephem synth.",
		"Bodies move on circular orbits; the data is for testing only.",
		"",
		"  EARTH BARYCENTER  type 2  Chebyshev position",
		"  EARTH             type 3  Chebyshev position and velocity",
		"  MOON              type 13 Hermite, unequal steps",
		"  MARS BARYCENTER   type 9  Lagrange, unequal steps",
		"  MARS BARYCENTER   type 8  Lagrange, equal steps (first 30 days)",
	}, "\n")

	records := int(math.Ceil((end - start) / (16 * synthDay)))
	pos := func(c circular) func(float64) []float64 {
		return func(et float64) []float64 { s := c.state(et); return s[:3] }
	}
	full := func(c circular) func(float64) []float64 {
		return func(et float64) []float64 { s := c.state(et); return s[:] }
	}

	add := func(name string, c circular, typ int32, payload []float64, s, e float64) error {
		return b.AddArray(name, []float64{s, e}, []int32{int32(c.target), int32(c.center), int32(frames.J2000), typ}, payload)
	}

	p, err := interp.FitChebyshev(pos(synthEMB), 3, start, end, records, 13)
	if err != nil {
		return nil, err
	}
	if err := add("EMB CHEBYSHEV", synthEMB, 2, p, start, end); err != nil {
		return nil, err
	}

	p, err = interp.FitChebyshev(full(synthEarth), 6, start, end, records*2, 11)
	if err != nil {
		return nil, err
	}
	if err := add("EARTH CHEBYSHEV", synthEarth, 3, p, start, end); err != nil {
		return nil, err
	}

	states, epochs := sample(synthMoon, start, end, 3*3600)
	p, err = interp.EncodeUnequalStep(states, epochs, 7)
	if err != nil {
		return nil, err
	}
	if err := add("MOON HERMITE", synthMoon, 13, p, epochs[0], epochs[len(epochs)-1]); err != nil {
		return nil, err
	}

	states, epochs = sample(synthMars, start, end, 2*synthDay)
	p, err = interp.EncodeUnequalStep(states, epochs, 7)
	if err != nil {
		return nil, err
	}
	if err := add("MARS LAGRANGE", synthMars, 9, p, epochs[0], epochs[len(epochs)-1]); err != nil {
		return nil, err
	}

	// A short equal-step patch loaded later in the file wins over the type 9
	// segment where the two overlap.
	states, epochs = sample(synthMars, start, start+30*synthDay, synthDay)
	if err := add("MARS PATCH", synthMars, 8, interp.EncodeEqualStep(states, epochs[0], synthDay, 7), epochs[0], epochs[len(epochs)-1]); err != nil {
		return nil, err
	}

	return b.Bytes()
}

// synthPCK builds an orientation kernel rotating the Earth-fixed kernel
// frame uniformly about the J2000 pole.
func synthPCK(start, end float64, order binary.ByteOrder) ([]byte, error) {
	const (
		w0   = 4.894961212823 // rad at J2000
		rate = 7.292115146706979e-5
	)
	b := daf.NewBuilder(daf.KindPCK, order)
	b.InternalName = "LS-EPHEM SYNTHETIC EARTH ORIENTATION"
	b.Comments = "Synthetic ITRF93 orientation written by ls-ephem synth. Uniform rotation, no precession."

	angles := func(et float64) []float64 { return []float64{0, 0, w0 + rate*et} }
	records := int(math.Ceil((end - start) / synthDay))
	p, err := interp.FitChebyshev(angles, 3, start, end, records, 3)
	if err != nil {
		return nil, err
	}
	if err := b.AddArray("ITRF93 UNIFORM", []float64{start, end}, []int32{3000, int32(frames.J2000), 2}, p); err != nil {
		return nil, err
	}
	return b.Bytes()
}

func sample(c circular, start, end, step float64) ([][6]float64, []float64) {
	n := int(math.Floor((end-start)/step)) + 1
	states := make([][6]float64, 0, n+1)
	epochs := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		et := start + float64(i)*step
		states = append(states, c.state(et))
		epochs = append(epochs, et)
	}
	if last := epochs[len(epochs)-1]; last < end {
		states = append(states, c.state(end))
		epochs = append(epochs, end)
	}
	return states, epochs
}

func newSynthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth DIR",
		Short: "Write synthetic demonstration kernels",
		Long: `Write synth.bsp (planets on circular orbits, one segment per supported
interpolation family) and synth.bpc (Earth orientation) into DIR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := a.leapSeconds()
			if err != nil {
				return err
			}
			s, _ := cmd.Flags().GetString("start")
			e, _ := cmd.Flags().GetString("end")
			startEp, err := timescale.Parse(s, ls)
			if err != nil {
				return err
			}
			endEp, err := timescale.Parse(e, ls)
			if err != nil {
				return err
			}
			start, end := startEp.ET(), endEp.ET()
			if end-start < 30*synthDay {
				return fmt.Errorf("synth span must be at least 30 days")
			}
			var order binary.ByteOrder = binary.LittleEndian
			if big, _ := cmd.Flags().GetBool("big-endian"); big {
				order = binary.BigEndian
			}
			compress, _ := cmd.Flags().GetBool("zstd")

			if err := os.MkdirAll(args[0], 0o755); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, k := range []struct {
				name  string
				build func(float64, float64, binary.ByteOrder) ([]byte, error)
			}{
				{"synth.bsp", synthSPK},
				{"synth.bpc", synthPCK},
			} {
				raw, err := k.build(start, end, order)
				if err != nil {
					return fmt.Errorf("%s: %w", k.name, err)
				}
				name := k.name
				if compress {
					if raw, err = daf.Compress(raw); err != nil {
						return err
					}
					name += ".zst"
				}
				path := filepath.Join(args[0], name)
				if err := os.WriteFile(path, raw, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s (%d bytes)\n", path, len(raw))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.String("start", "2020-01-01T00:00:00 TDB", "first covered epoch")
	f.String("end", "2030-01-01T00:00:00 TDB", "last covered epoch")
	f.Bool("big-endian", false, "write big-endian kernels")
	f.Bool("zstd", false, "compress the kernels with zstd")
	return cmd
}
