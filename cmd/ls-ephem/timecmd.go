package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-ephem/internal/timescale"
)

var allScales = []timescale.Scale{timescale.TDB, timescale.TT, timescale.TAI, timescale.UTC, timescale.GPS}

func newTimeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time [EPOCH]",
		Short: "Convert an epoch between time scales",
		Long: `Print EPOCH (default now) as a calendar date, seconds past J2000 and Julian
date in each of TDB, TT, TAI, UTC and GPS.`,
		Example: `  ls-ephem time "2016-12-31T23:59:60 UTC"
  ls-ephem time "JD 2451545.0 TT"
  ls-ephem time "ET 0" --leapseconds naif0012.tls`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := a.leapSeconds()
			if err != nil {
				return err
			}

			ep, err := epochFlag(cmd, ls, "at")
			if len(args) == 1 {
				ep, err = timescale.Parse(args[0], ls)
			}
			if err != nil {
				return err
			}

			type row struct {
				Scale    string  `json:"scale"`
				Calendar string  `json:"calendar"`
				Seconds  float64 `json:"seconds_past_j2000"`
				JD       float64 `json:"jd"`
			}
			var rows []row
			for _, s := range allScales {
				c, err := timescale.ToCalendar(ep, s, ls)
				if err != nil {
					return err
				}
				sec, err := timescale.Convert(ep, s, ls)
				if err != nil {
					return err
				}
				jd, err := timescale.JulianDate(ep, s, ls)
				if err != nil {
					return err
				}
				rows = append(rows, row{s.String(), c.String(), sec, jd})
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, rows)
			}
			for _, r := range rows {
				fmt.Fprintf(out, "%-4s %-36s %20.9f  JD %.9f\n", r.Scale, r.Calendar, r.Seconds, r.JD)
			}
			return nil
		},
	}
	cmd.Flags().String("at", "now", "epoch when no argument is given")
	cmd.Flags().Bool("json", false, "write JSON")
	return cmd
}
