package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/metakernel"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// site resolves --site against the meta-kernel's [sites] tables first,
// then the built-in stations and lat,lon[,alt] literals.
func (a *app) site(cmd *cobra.Command) (ephem.Site, error) {
	name, _ := cmd.Flags().GetString("site")
	if a.cfg.MetaKernel != "" {
		m, err := metakernel.Load(a.cfg.MetaKernel)
		if err != nil {
			return ephem.Site{}, err
		}
		if s, ok := m.Site(name); ok {
			return s, nil
		}
	}
	return ephem.ParseSite(name)
}

var separationLabels = map[astro.SeparationTier]string{
	astro.SeparationSafe:    "",
	astro.SeparationCaution: " (caution)",
	astro.SeparationWarning: " (warning)",
}

func newAzElCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "azel TARGET",
		Short: "Azimuth, elevation and range of a target from a ground site",
		Example: `  ls-ephem azel moon --site goldstone -k de440s.bsp
  ls-ephem azel mars --site "52.2,-2.3,0.1" -k de440s.bsp --abcorr LT+S`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ephem.ResolveBody(args[0])
			if err != nil {
				return err
			}
			site, err := a.site(cmd)
			if err != nil {
				return err
			}
			ab, err := abcorrFlag(cmd)
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
			t, err := alm.AzEl(target, site, ep, ab)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, t)
			}
			fmt.Fprintf(out, "%s from %s at %s\n", ephem.Name(target), site.Name, ep)
			fmt.Fprintf(out, "  azimuth     %12.6f°\n  elevation   %12.6f°\n", t.AzDeg, t.ElDeg)
			fmt.Fprintf(out, "  range       %.6f km\n  range rate  %.9f km/s\n", t.RangeKm, t.RangeRate)
			if band, _ := cmd.Flags().GetString("band"); band != "" {
				mhz, ok := astro.BandFrequency(band)
				if !ok {
					return fmt.Errorf("unknown band %q: want S, X or Ka", band)
				}
				shift := astro.DopplerShift(t.RangeRate, mhz)
				fmt.Fprintf(out, "  doppler     %s at %g MHz\n", astro.FormatDopplerShift(shift), mhz)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.String("site", "goldstone", "ground station name or lat,lon[,alt_km] in degrees")
	f.String("at", "now", "epoch")
	f.String("abcorr", "NONE", "aberration correction")
	f.String("band", "", "also print the downlink Doppler shift for a band (S, X or Ka)")
	f.Bool("json", false, "write JSON")
	return cmd
}

func newPassesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passes TARGET",
		Short: "Intervals during which a target is above a site's horizon",
		Long: `Sample the elevation of TARGET from --site between --start and --end and list
each pass above --min-el with its rise, transit and set times. When the Sun is
covered by the loaded kernels, the Sun separation at transit is shown too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ephem.ResolveBody(args[0])
			if err != nil {
				return err
			}
			site, err := a.site(cmd)
			if err != nil {
				return err
			}
			ab, err := abcorrFlag(cmd)
			if err != nil {
				return err
			}
			alm, err := a.openLoaded(cmd.Context())
			if err != nil {
				return err
			}
			defer alm.Close()

			ls := alm.LeapSeconds()
			start, err := epochFlag(cmd, ls, "start")
			if err != nil {
				return err
			}
			end := start.Add(24 * time.Hour)
			if s, _ := cmd.Flags().GetString("end"); s != "" {
				if end, err = timescale.Parse(s, ls); err != nil {
					return err
				}
			}
			step, _ := cmd.Flags().GetDuration("step")
			minEl, _ := cmd.Flags().GetFloat64("min-el")

			passes, err := alm.Passes(target, site, start, end, step, minEl, ab)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, passes)
			}
			if len(passes) == 0 {
				fmt.Fprintf(out, "%s does not rise above %g° from %s\n", ephem.Name(target), minEl, site.Name)
				return nil
			}

			var rows [][]string
			for _, p := range passes {
				rise, set := timescale.FromET(p.Rise).String(), timescale.FromET(p.Set).String()
				if !p.RiseKnown {
					rise = "(up at start)"
				}
				if !p.SetKnown {
					set = "(up at end)"
				}
				sun := "-"
				if target != ephem.Sun {
					sep, err := alm.Separation(target, ephem.Sun, site.Body, timescale.FromET(p.Transit), ab)
					switch {
					case err == nil:
						sun = fmt.Sprintf("%.1f°%s", sep, separationLabels[astro.SeparationTierOf(sep)])
					case !errors.Is(err, catalog.ErrNoCoverage):
						return err
					}
				}
				dur := time.Duration(p.Duration() * float64(time.Second)).Round(time.Second)
				rows = append(rows, []string{
					rise,
					timescale.FromET(p.Transit).String(),
					set,
					fmt.Sprintf("%.2f°", p.MaxElDeg),
					dur.String(),
					sun,
				})
			}
			renderTable(out, []string{"RISE", "TRANSIT", "SET", "MAX EL", "DURATION", "SUN SEP"}, rows, nil)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("site", "goldstone", "ground station name or lat,lon[,alt_km] in degrees")
	f.String("start", "now", "first sampled epoch")
	f.String("end", "", "last sampled epoch (default start + 24h)")
	f.Duration("step", 5*time.Minute, "sampling step")
	f.Float64("min-el", 0, "minimum elevation in degrees")
	f.String("abcorr", "NONE", "aberration correction")
	f.Bool("json", false, "write JSON")
	return cmd
}

func abcorrFlag(cmd *cobra.Command) (ephem.Aberration, error) {
	s, _ := cmd.Flags().GetString("abcorr")
	return ephem.ParseAberration(s)
}
