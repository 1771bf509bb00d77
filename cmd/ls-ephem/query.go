package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// epochFlag parses --at, defaulting to the current time.
func epochFlag(cmd *cobra.Command, ls *timescale.LeapSeconds, name string) (timescale.Epoch, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" || s == "now" {
		return timescale.FromTime(time.Now(), ls)
	}
	return timescale.Parse(s, ls)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state TARGET OBSERVER",
		Short: "Position and velocity of a target relative to an observer",
		Long: `Evaluate the state of TARGET relative to OBSERVER. Bodies are NAIF names,
aliases or integer codes. With --start, --end and --step a series is written
as CSV or JSON instead.`,
		Example: `  ls-ephem state moon earth -k de440s.bsp --at "2025-01-01T00:00:00 UTC"
  ls-ephem state mars earth -k de440s.bsp --abcorr LT+S --frame ECLIPJ2000
  ls-ephem state 301 399 -k de440s.bsp --start 2025-01-01 --end 2025-01-02 --step 1h --csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ephem.ResolveBody(args[0])
			if err != nil {
				return err
			}
			observer, err := ephem.ResolveBody(args[1])
			if err != nil {
				return err
			}
			frame, _ := cmd.Flags().GetString("frame")
			abText, _ := cmd.Flags().GetString("abcorr")
			ab, err := ephem.ParseAberration(abText)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			alm, err := a.openLoaded(cmd.Context())
			if err != nil {
				return err
			}
			defer alm.Close()
			out := cmd.OutOrStdout()

			if start, _ := cmd.Flags().GetString("start"); start != "" {
				return writeSeries(cmd, alm, target, observer, frame, ab, out)
			}

			ep, err := epochFlag(cmd, alm.LeapSeconds(), "at")
			if err != nil {
				return err
			}
			sv, err := alm.State(target, observer, frame, ep, ab)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, sv)
			}
			printState(out, sv)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("frame", "J2000", "output reference frame")
	f.String("at", "now", "epoch, e.g. \"2025-01-01T00:00:00 UTC\", \"JD 2451545.0 TDB\" or \"ET 0\"")
	f.String("abcorr", "NONE", "aberration correction: NONE, LT, LT+S, CN, CN+S, XLT, XLT+S, XCN, XCN+S")
	f.Bool("json", false, "write JSON")
	f.String("start", "", "series start epoch")
	f.String("end", "", "series end epoch")
	f.Duration("step", time.Hour, "series step")
	f.Bool("csv", false, "write the series as CSV instead of JSON")
	f.StringP("output", "o", "", "write the series to a file")
	return cmd
}

func writeSeries(cmd *cobra.Command, alm *ephem.Almanac, target, observer int, frame string, ab ephem.Aberration, out io.Writer) error {
	start, err := epochFlag(cmd, alm.LeapSeconds(), "start")
	if err != nil {
		return err
	}
	endText, _ := cmd.Flags().GetString("end")
	if endText == "" {
		return fmt.Errorf("--start needs --end")
	}
	end, err := epochFlag(cmd, alm.LeapSeconds(), "end")
	if err != nil {
		return err
	}
	step, _ := cmd.Flags().GetDuration("step")
	series, err := alm.Path(target, observer, frame, start, end, step, ab)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create series file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV {
		return series.WriteCSV(out)
	}
	return series.WriteJSON(out)
}

func printState(w io.Writer, sv ephem.StateVector) {
	p, v := sv.Position, sv.Velocity
	fmt.Fprintf(w, "%s relative to %s in %s at %s\n", ephem.Name(sv.Target), ephem.Name(sv.Observer), sv.Frame, sv.Epoch)
	fmt.Fprintf(w, "  correction  %s\n", sv.Aberration)
	fmt.Fprintf(w, "  position    %18.6f %18.6f %18.6f km\n", p.X, p.Y, p.Z)
	fmt.Fprintf(w, "  velocity    %18.9f %18.9f %18.9f km/s\n", v.X, v.Y, v.Z)
	fmt.Fprintf(w, "  range       %.6f km (%.9f AU)\n", sv.Range(), astro.KmToAU(sv.Range()))
	fmt.Fprintf(w, "  range rate  %.9f km/s\n", sv.RangeRate())
	if sv.LightTime > 0 {
		fmt.Fprintf(w, "  light time  %.9f s (%s)\n", sv.LightTime, astro.FormatLightTime(sv.LightTime))
	}
}

func newTransformCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform FROM TO",
		Short: "Rotation and rotation rate between two frames",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alm, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer alm.Close()

			ep, err := epochFlag(cmd, alm.LeapSeconds(), "at")
			if err != nil {
				return err
			}
			t, err := alm.Transform(args[0], args[1], ep)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, struct {
					From         string     `json:"from"`
					To           string     `json:"to"`
					ET           float64    `json:"et"`
					Rotation     astro.Mat3 `json:"rotation"`
					RotationRate astro.Mat3 `json:"rotation_rate"`
				}{args[0], args[1], ep.ET(), t.Rotation, t.RotationRate})
			}
			fmt.Fprintf(out, "%s -> %s at %s\n", t.From, t.To, ep)
			printMatrix(out, "rotation", t.Rotation, "%15.12f")
			printMatrix(out, "rate (1/s)", t.RotationRate, "%15.6e")
			q := astro.QuaternionFromMat3(t.Rotation)
			fmt.Fprintf(out, "quaternion   % .12f % .12f % .12f % .12f\n", q.W, q.X, q.Y, q.Z)
			return nil
		},
	}
	cmd.Flags().String("at", "now", "epoch")
	cmd.Flags().Bool("json", false, "write JSON")
	return cmd
}

func printMatrix(w io.Writer, label string, m astro.Mat3, format string) {
	for i, row := range m {
		head := ""
		if i == 0 {
			head = label
		}
		fmt.Fprintf(w, "%-12s "+format+" "+format+" "+format+"\n", head, row[0], row[1], row[2])
	}
}

func newFramesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames FRAME",
		Short: "Show the chain of a frame up to its root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alm, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer alm.Close()

			ep, err := epochFlag(cmd, alm.LeapSeconds(), "at")
			if err != nil {
				return err
			}
			edges, err := alm.FramePath(args[0], ep)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(edges) == 0 {
				fmt.Fprintf(out, "%s is a root frame\n", args[0])
				return nil
			}
			for _, e := range edges {
				fmt.Fprintf(out, "%-14s -> %-14s %s\n", e.Child, e.Parent, e.Kind)
			}
			return nil
		},
	}
	cmd.Flags().String("at", "now", "epoch")
	return cmd
}

func newGeodeticCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geodetic TARGET BODY",
		Short: "Planetodetic latitude, longitude and altitude of a target above a body",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ephem.ResolveBody(args[0])
			if err != nil {
				return err
			}
			body, err := ephem.ResolveBody(args[1])
			if err != nil {
				return err
			}
			alm, err := a.openLoaded(cmd.Context())
			if err != nil {
				return err
			}
			defer alm.Close()

			ep, err := epochFlag(cmd, alm.LeapSeconds(), "at")
			if err != nil {
				return err
			}
			g, err := alm.Geodetic(target, body, ep)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, g)
			}
			fmt.Fprintf(out, "%s above %s at %s\n", ephem.Name(target), ephem.Name(body), ep)
			fmt.Fprintf(out, "  latitude   %12.6f°\n  longitude  %12.6f°\n  altitude   %12.3f km\n", g.LatDeg, g.LonDeg, g.AltKm)
			return nil
		},
	}
	cmd.Flags().String("at", "now", "epoch")
	cmd.Flags().Bool("json", false, "write JSON")
	return cmd
}
