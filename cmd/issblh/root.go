package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/issblh/internal/config"
	"github.com/star/issblh/internal/output"
	"github.com/star/issblh/internal/passes"
	"github.com/star/issblh/internal/timescale"
	"github.com/star/issblh/internal/tle"
	"github.com/star/issblh/internal/transform"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	var observer string

	root := &cobra.Command{
		Use:   "issblh [time]",
		Short: "Compute the WGS-84 position of a satellite from its TLE",
		Long: `issblh propagates a two-line element set with SGP4 and converts the
TEME state to WGS-84 latitude, longitude and height, applying GMST, LOD and
polar motion from an Earth orientation table.

time is JST written as digits (YYYYMMDDhhmmss with up to nine fraction
digits) or an RFC 3339 timestamp. It defaults to now.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if len(args) == 1 {
				t, err := timescale.ParseInstant(args[0])
				if err != nil {
					return err
				}
				at = t
			}
			format, err := output.ParseFormat(a.cfg.Output.Format)
			if err != nil {
				return err
			}
			var obs *transform.Geodetic
			if observer != "" {
				g, err := transform.ParseObserver(observer)
				if err != nil {
					return err
				}
				obs = &g
			}

			gen, _, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}
			fix, err := gen.FixAt(cmd.Context(), at)
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), output.NewReport(fix, obs), format)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (yaml, toml or json)")
	pf.String("tle", "", "TLE file (default: download tle.url into tle.cache_dir)")
	pf.String("tle-url", "", "TLE catalog URL")
	pf.String("eop", "", "EOP CSV file (date,pm_x,pm_y,dut1,lod)")
	pf.String("gravity", "", "gravity model: wgs72old, wgs72 or wgs84")
	pf.String("format", "", "output format: text, json or yaml")
	pf.Int("workers", 0, "worker pool size")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	root.Flags().StringVar(&observer, "observer", "", "ground observer lat,lon[,height_m] for look angles")

	root.AddCommand(
		newEphemerisCmd(a),
		newPassesCmd(a),
		newServeCmd(a),
		newFetchCmd(a),
		newInitConfigCmd(),
	)
	return root
}

func newEphemerisCmd(a *app) *cobra.Command {
	var (
		start string
		step  time.Duration
		count int
	)
	cmd := &cobra.Command{
		Use:   "ephemeris",
		Short: "Compute a series of positions at a fixed step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if start != "" {
				t, err := timescale.ParseInstant(start)
				if err != nil {
					return err
				}
				at = t
			}
			if step <= 0 {
				return fmt.Errorf("--step must be positive, got %s", step)
			}
			format, err := output.ParseFormat(a.cfg.Output.Format)
			if err != nil {
				return err
			}

			gen, _, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}
			fixes, err := gen.Series(cmd.Context(), at, step, count)
			if err != nil {
				return err
			}
			return output.RenderSeries(cmd.OutOrStdout(), fixes, format)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first instant (JST digits or RFC 3339, default now)")
	cmd.Flags().DurationVar(&step, "step", time.Minute, "interval between fixes")
	cmd.Flags().IntVar(&count, "count", 60, "number of fixes")
	return cmd
}

func newPassesCmd(a *app) *cobra.Command {
	var (
		start, observer string
		horizon         time.Duration
		minElevation    float64
		maxPasses       int
	)
	cmd := &cobra.Command{
		Use:   "passes",
		Short: "Predict passes over a ground observer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := transform.ParseObserver(observer)
			if err != nil {
				return err
			}
			at := time.Now().UTC()
			if start != "" {
				if at, err = timescale.ParseInstant(start); err != nil {
					return err
				}
			}
			format, err := output.ParseFormat(a.cfg.Output.Format)
			if err != nil {
				return err
			}

			gen, _, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}
			ps, err := passes.Predict(cmd.Context(), gen, passes.Request{
				Observer:     obs,
				Start:        at,
				Horizon:      horizon,
				MinElevation: minElevation,
				MaxPasses:    maxPasses,
			})
			if err != nil {
				return err
			}
			return output.RenderPasses(cmd.OutOrStdout(), obs, ps, format)
		},
	}
	cmd.Flags().StringVar(&observer, "observer", "", "ground observer lat,lon[,height_m] (required)")
	cmd.Flags().StringVar(&start, "start", "", "scan start (JST digits or RFC 3339, default now)")
	cmd.Flags().DurationVar(&horizon, "horizon", 24*time.Hour, "scan length")
	cmd.Flags().Float64Var(&minElevation, "min-elevation", 10, "minimum elevation in degrees")
	cmd.Flags().IntVar(&maxPasses, "max", 10, "maximum number of passes (0 for no limit)")
	cmd.MarkFlagRequired("observer")
	return cmd
}

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the TLE catalog into the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := tle.NewDiskCache(a.cfg.TLE.CacheDir, a.cfg.TLE.MaxFiles)
			ds, err := a.fetchElements(cmd.Context(), cache)
			if err != nil {
				return err
			}
			for _, e := range ds.Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s %s\n", e.NORADID, e.Epoch().Format(time.RFC3339), e.Name)
			}
			return nil
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config <path>",
		Short: "Write the default configuration as YAML",
		Args:  cobra.ExactArgs(1),
		// Runs without loading any existing configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", args[0])
			return nil
		},
	}
}
