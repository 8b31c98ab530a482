// Package cli is the leadctl command tree: visitor intake, telemetry and the
// back-office commercial and zone tooling.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/config"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/backend"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/commercial"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/intake"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/profile"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/telemetry"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/zones"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultProfileName = ".leadctl.db"

// NewRootCommand builds the leadctl command tree
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leadctl",
		Short: "Lead intake and commercial lifecycle client",
		Long: `leadctl submits owner leads for scoring and drives the back-office
lifecycle of scored leads: reserve, release, sell and zone pricing.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.leadctl.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides IEI_API_BASE_URL)")
	rootCmd.PersistentFlags().String("profile", "", "profile database path (default is $HOME/"+defaultProfileName+", \"memory\" for none)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "warn", "Set log level. Available: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("no-telemetry", false, "do not send telemetry events")

	_ = v.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = v.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = v.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))
	_ = v.BindPFlag("no_telemetry", rootCmd.PersistentFlags().Lookup("no-telemetry"))

	rootCmd.AddCommand(
		newSessionCmd(v),
		newSubmitCmd(v),
		newResultCmd(v),
		newTrackCmd(v),
		newResetCmd(v),
		newLoginCmd(v),
		newLogoutCmd(v),
		newLeadsCmd(v),
		newAgenciesCmd(v),
		newZonesCmd(v),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig reads the config file and LEADCTL_* environment variables
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(".leadctl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("leadctl")
	v.AutomaticEnv()
	v.SetDefault("admin_password", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// app wires the client core for one command invocation
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	profile    *profile.Profile
	client     *backend.Client
	dispatcher *telemetry.Dispatcher
	emitter    *telemetry.Emitter
	pipeline   *intake.Pipeline
	controller *commercial.Controller
	editor     *zones.Editor
	out        io.Writer
}

func newApp(v *viper.Viper, out, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if url := v.GetString("api_url"); url != "" {
		cfg.API.BaseURL = url
	}
	cfg.Log.Level = v.GetString("loglevel")
	cfg.Log.Format = "text"
	if v.GetBool("no_telemetry") {
		cfg.Telemetry.Enabled = false
	}

	logger := config.NewLogger(cfg)
	logger.SetOutput(errOut)

	path, err := profilePath(v.GetString("profile"), cfg.Profile.Path)
	if err != nil {
		return nil, err
	}
	prof, err := profile.Open(path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}

	client, err := backend.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.Timeout)*time.Second, cfg.API.ReadRetries, logger, backend.WithSession(prof))
	if err != nil {
		prof.Close()
		return nil, err
	}
	if cookies, err := prof.Cookies(); err != nil {
		logger.WithError(err).Warn("Failed to restore admin session")
	} else if len(cookies) > 0 {
		client.SetCookies(cookies)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		profile: prof,
		client:  client,
		out:     out,
	}

	var queue *telemetry.EventQueue
	if cfg.Telemetry.Enabled {
		queue = telemetry.NewEventQueue(cfg.Telemetry.BufferSize, logger)
		a.dispatcher = telemetry.NewDispatcher(client, queue, time.Duration(cfg.Telemetry.Timeout)*time.Second, logger)
		a.dispatcher.Start()
	}
	a.emitter = telemetry.NewEmitter(queue, prof, cfg.Telemetry.EventVersion, logger)
	a.pipeline = intake.NewPipeline(client, prof, a.emitter, logger)
	a.controller = commercial.NewController(client, cfg, logger)
	a.editor = zones.NewEditor(client, logger)
	return a, nil
}

// close flushes pending telemetry and releases the profile
func (a *app) close() {
	if a.dispatcher != nil {
		a.dispatcher.Stop(time.Duration(a.cfg.Telemetry.Timeout) * time.Second)
	}
	if err := a.profile.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close profile")
	}
}

// profilePath resolves the flag, then the environment, then $HOME/.leadctl.db
func profilePath(flag, env string) (string, error) {
	switch {
	case flag == "memory":
		return "", nil
	case flag != "":
		return flag, nil
	case env != "":
		return env, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, defaultProfileName), nil
}

// run builds the app, runs fn and always tears the app down
func run(v *viper.Viper, cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(v, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
