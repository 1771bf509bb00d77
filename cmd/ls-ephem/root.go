package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/litescript/ls-ephem/internal/config"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/logging"
	"github.com/litescript/ls-ephem/internal/metakernel"
	"github.com/litescript/ls-ephem/internal/timescale"
	"github.com/litescript/ls-ephem/internal/version"
)

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v        *viper.Viper
	cfg      config.Config
	log      *logging.Logger
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ls-ephem",
		Short:         "Planetary ephemeris and orientation kernel engine",
		Long:          "ls-ephem loads SPK and PCK kernels and answers position, velocity and frame rotation queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default .ls-ephem.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.StringSliceP("kernel", "k", nil, "kernel file to load; repeat for more, later ones take precedence")
	pf.StringP("meta", "m", "", "TOML meta-kernel listing kernels and constants")
	pf.String("leapseconds", "", "NAIF leap-second kernel")
	pf.Bool("best-effort", false, "skip malformed segments instead of failing the load")

	root.AddCommand(
		newStateCmd(a),
		newTransformCmd(a),
		newFramesCmd(a),
		newGeodeticCmd(a),
		newAzElCmd(a),
		newPassesCmd(a),
		newInspectCmd(a),
		newCoverageCmd(a),
		newTimeCmd(a),
		newWatchCmd(a),
		newBrowseCmd(a),
		newSynthCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	file, _ := cmd.Flags().GetString("config")
	home, _ := os.UserHomeDir()
	a.v = config.New(file, home)

	binds := map[string]string{
		"log_level":   "log-level",
		"kernels":     "kernel",
		"meta_kernel": "meta",
		"leapseconds": "leapseconds",
	}
	for key, flag := range binds {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	if f := cmd.Flags().Lookup("best-effort"); f != nil && f.Changed {
		a.v.Set("strict", false)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.NewWithOutput(logging.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr())
	a.registry = prometheus.NewRegistry()
	return nil
}

// open builds an almanac from the configured meta-kernel, leap seconds and
// kernel list.
// open builds the almanac from the configuration. extra options apply last.
func (a *app) open(ctx context.Context, extra ...ephem.Option) (*ephem.Almanac, error) {
	opts := append(a.cfg.Options(a.log), ephem.WithMetrics(a.registry))
	opts = append(opts, extra...)

	if a.cfg.Leapseconds != "" {
		ls, err := a.leapSeconds()
		if err != nil {
			return nil, err
		}
		opts = append(opts, ephem.WithLeapSeconds(ls))
	}

	var alm *ephem.Almanac
	if a.cfg.MetaKernel != "" {
		m, _, err := metakernel.Open(ctx, a.cfg.MetaKernel, opts...)
		if err != nil {
			return nil, err
		}
		alm = m
	} else {
		m, err := ephem.New(opts...)
		if err != nil {
			return nil, err
		}
		alm = m
	}

	if len(a.cfg.Kernels) > 0 {
		if _, err := alm.LoadKernels(ctx, a.cfg.Kernels); err != nil {
			_ = alm.Close()
			return nil, err
		}
	}
	return alm, nil
}

// leapSeconds returns the configured leap-second table, from --leapseconds
// or the meta-kernel, or the built-in table.
func (a *app) leapSeconds() (*timescale.LeapSeconds, error) {
	path := a.cfg.Leapseconds
	if path == "" && a.cfg.MetaKernel != "" {
		m, err := metakernel.Load(a.cfg.MetaKernel)
		if err != nil {
			return nil, err
		}
		path = m.Leapseconds
	}
	if path == "" {
		return timescale.Default(), nil
	}
	return metakernel.LoadLeapSeconds(path)
}

// openLoaded is open for commands that need at least one kernel.
func (a *app) openLoaded(ctx context.Context) (*ephem.Almanac, error) {
	alm, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	if len(alm.Kernels()) == 0 {
		_ = alm.Close()
		return nil, fmt.Errorf("no kernels: pass --kernel or --meta, or set kernels in the config")
	}
	return alm, nil
}

// isTTY reports whether w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}
