package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds process-level settings, populated from flags and SHERLOCK_*
// environment variables.
type Config struct {
	bind           string
	port           int
	publicURL      string
	origins        []string
	sessionTimeout time.Duration
	sweepInterval  time.Duration
	verbose        bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.sweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive: %s", c.sweepInterval)
	}
	if c.sessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive: %s", c.sessionTimeout)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SHERLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "sherlock13",
		Short:         "Authoritative session server for the Sherlock-13 deduction game.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SHERLOCK_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SHERLOCK_PORT)")
	fs.StringVar(&cfg.publicURL, "public-url", "http://localhost:8080", "public base URL encoded into join QR codes (env: SHERLOCK_PUBLIC_URL)")
	fs.StringSliceVar(&cfg.origins, "origins", []string{"*"}, "allowed WebSocket origin patterns (env: SHERLOCK_ORIGINS)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 2*time.Hour, "time before idle game sessions are evicted (env: SHERLOCK_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", 5*time.Minute, "how often idle sessions are swept (env: SHERLOCK_SWEEP_INTERVAL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging (env: SHERLOCK_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("sherlock13 v{{.Version}}\n")

	return cmd
}
