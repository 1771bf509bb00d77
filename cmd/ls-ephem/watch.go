package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/ui"
	"github.com/litescript/ls-ephem/internal/watch"
)

// kernelDir returns the directory argument or the configured kernel_dir.
func (a *app) kernelDir(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if a.cfg.KernelDir != "" {
		return a.cfg.KernelDir, nil
	}
	return "", fmt.Errorf("no kernel directory: pass DIR or set kernel_dir")
}

// watchedLoads reads kernels into memory whatever the mmap setting, since
// watched files are rewritten in place and a shrinking mapping faults.
var watchedLoads = []ephem.Option{ephem.WithMmap(false)}

func (a *app) watcher(alm *ephem.Almanac, dir string) (*watch.Watcher, error) {
	return watch.New(alm, watch.Config{Dir: dir, Debounce: a.cfg.Debounce, Logger: a.log})
}

// serveMetrics exposes the registry on addr until ctx ends.
func (a *app) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.log.Info("serving metrics on %s/metrics", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Keep kernels in a directory loaded as files change",
		Long: `Load every kernel in DIR, then reload kernels that are rewritten, load new
ones and unload removed ones until interrupted. Each change is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.kernelDir(args)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
				a.cfg.MetricsAddr = addr
			}

			alm, err := a.open(cmd.Context(), watchedLoads...)
			if err != nil {
				return err
			}
			defer alm.Close()
			w, err := a.watcher(alm, dir)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return w.Run(ctx) })
			if a.cfg.MetricsAddr != "" {
				g.Go(func() error { return a.serveMetrics(ctx, a.cfg.MetricsAddr) })
			}

			out := cmd.OutOrStdout()
			for c := range w.Changes() {
				line := fmt.Sprintf("%s  %-8s %s", time.Now().Format("15:04:05"), c.Action, c.Path)
				if c.Err != nil {
					line += ": " + c.Err.Error()
				}
				fmt.Fprintln(out, line)
			}
			return g.Wait()
		},
	}
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse loaded kernels, segments and live states in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTTY(cmd.OutOrStdout()) {
				return fmt.Errorf("browse needs a terminal")
			}
			dir, _ := cmd.Flags().GetString("watch")
			var extra []ephem.Option
			if dir != "" {
				extra = watchedLoads
			}
			alm, err := a.open(cmd.Context(), extra...)
			if err != nil {
				return err
			}
			defer alm.Close()

			if dir == "" {
				return ui.Run(alm)
			}

			w, err := a.watcher(alm, dir)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()
			go func() {
				for range w.Changes() {
				}
			}()

			err = ui.Run(alm)
			cancel()
			return errors.Join(err, <-done)
		},
	}
	cmd.Flags().String("watch", "", "also watch this kernel directory")
	return cmd
}
