// Alarm - network alarm buzzer
//
// The alarm joins the configured wireless network, listens for HTTP
// notifications and sounds a buzzer whenever one reports the "alerting"
// state. Device settings come from a key=value settings file; everything
// else (logging, buzzer driver, MQTT, InfluxDB) from an optional YAML
// configuration file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sidingsmedia/alarm/internal/alarm"
	"github.com/sidingsmedia/alarm/internal/buzzer"
	"github.com/sidingsmedia/alarm/internal/infrastructure/config"
	"github.com/sidingsmedia/alarm/internal/infrastructure/influxdb"
	"github.com/sidingsmedia/alarm/internal/infrastructure/logging"
	"github.com/sidingsmedia/alarm/internal/infrastructure/mqtt"
	"github.com/sidingsmedia/alarm/internal/netup"
	"github.com/sidingsmedia/alarm/internal/server"
	"github.com/sidingsmedia/alarm/internal/settings"
	"github.com/sidingsmedia/alarm/internal/wire"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultSettingsPath = "settings.txt"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		logging.Default().Fatal("alarm stopped", "error", err)
	}
}

// options are the flags shared by every subcommand.
type options struct {
	settingsPath string
	configPath   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "alarm",
		Short:         "Network alarm buzzer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.settingsPath, "settings", envOr("ALARM_SETTINGS", defaultSettingsPath),
		"device settings file (env ALARM_SETTINGS)")
	flags.StringVar(&opts.configPath, "config", os.Getenv("ALARM_CONFIG"),
		"runtime configuration YAML; built-in defaults when empty (env ALARM_CONFIG)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Join the network and listen for notifications (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts)
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the settings file and print the resolved values",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return validate(cmd.OutOrStdout(), opts)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "alarm %s (commit %s, built %s)\n", version, commit, date)
			},
		},
	)

	return root
}

// run is the serve command, separated from cobra for testability.
func run(ctx context.Context, opts *options) error {
	log := logging.Default()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("starting alarm",
		"version", version,
		"commit", commit,
		"build_date", date,
		"device_id", cfg.Device.ID,
	)

	s, err := loadSettings(opts.settingsPath, log)
	if err != nil {
		return err
	}

	netLog := log.Module("Network")

	if cfg.Network.Manage {
		if err := joinNetwork(ctx, cfg.Network, s, netLog); err != nil {
			return err
		}
	} else {
		netLog.Info("network management disabled, assuming interface is up")
	}

	var sinks []alarm.Option
	checks := make(map[string]healthChecker)

	mqttClient := connectMQTT(cfg, log)
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		sinks = append(sinks, alarm.WithSink(mqttClient))
		checks["mqtt"] = mqttClient
	}

	influxClient := connectInfluxDB(cfg, log)
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		sinks = append(sinks, alarm.WithSink(influxClient))
		checks["influxdb"] = influxClient
	}

	bz, err := buzzer.Open(cfg.Buzzer, log.Module("Buzzer"))
	if err != nil {
		return fmt.Errorf("opening buzzer: %w", err)
	}
	defer func() {
		if closeErr := bz.Close(); closeErr != nil {
			log.Error("error closing buzzer", "error", closeErr)
		}
	}()

	chirp(ctx, cfg.Buzzer, recordedBuzzer{buzzer: bz, influx: influxClient, reason: "startup"}, log)
	if influxClient != nil {
		// Boot is rare; send the startup point now rather than at the next batch.
		influxClient.Flush()
	}

	dispatcher := alarm.NewDispatcher(
		recordedBuzzer{buzzer: bz, influx: influxClient, reason: "alert"},
		append(sinks, alarm.WithLogger(netLog))...,
	)

	netLog.Info("initializing HTTP server", "port", s.Port, "family", s.Family(), "backlog", s.MaxConnections)
	ln, err := server.Listen(server.ListenConfig{
		Family:  s.Family(),
		Port:    s.Port,
		Backlog: s.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("starting listener: %w", err)
	}

	serverOpts := []server.Option{
		server.WithReader(wire.NewReader(
			wire.WithChunkSize(cfg.Listener.ChunkSize),
			wire.WithMaxRequestSize(cfg.Listener.MaxRequestSize),
		)),
		server.WithReadTimeout(cfg.Listener.ReadTimeout),
		server.WithLogger(netLog),
	}
	if influxClient != nil {
		serverOpts = append(serverOpts, server.WithObserver(influxClient))
	}

	srv := server.New(ln, dispatcher, serverOpts...)
	netLog.Info("HTTP server initialized", "addr", srv.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(gctx); err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	if len(checks) > 0 {
		g.Go(func() error {
			return monitorTelemetry(gctx, telemetryCheckInterval, checks, log.Module("Telemetry"))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("alarm stopped")
	return nil
}

// loadSettings validates the device settings file.
func loadSettings(path string, log *logging.Logger) (*settings.Settings, error) {
	v := settings.NewValidator(settings.DefaultSchema())
	v.SetLogger(log.Module("Settings"))

	s, err := v.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}

func joinNetwork(ctx context.Context, cfg config.NetworkConfig, s *settings.Settings, log *logging.Logger) error {
	m := netup.New(nil)
	m.SetLogger(log)

	ok, err := m.Connect(ctx, netup.Params{
		SSID:      s.SSID,
		Key:       s.Key,
		Timeout:   time.Duration(s.Timeout) * time.Second,
		Static:    s.Static,
		Addr:      s.Addr,
		Mask:      s.Mask,
		Gateway:   s.Gateway,
		IPv6:      s.Family() == settings.FamilyINET6,
		Interface: cfg.Interface,
		Command:   cfg.Command,
	})
	if err != nil {
		return fmt.Errorf("network bring-up: %w", err)
	}
	if !ok {
		return fmt.Errorf("could not connect to wireless network %q", s.SSID)
	}
	return nil
}

// connectMQTT returns nil when MQTT is disabled or unreachable. The alarm
// keeps working without the event bus.
func connectMQTT(cfg *config.Config, log *logging.Logger) *mqtt.Client {
	if !cfg.MQTT.Enabled {
		return nil
	}

	client, err := mqtt.Connect(cfg.MQTT, cfg.Device.ID)
	if err != nil {
		log.Warn("MQTT unavailable, continuing without event publishing", "error", err)
		return nil
	}
	client.SetLogger(log.Module("MQTT"))

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"event_topic", client.Topics().Event(),
	)
	return client
}

// connectInfluxDB returns nil when InfluxDB is disabled or unreachable.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) *influxdb.Client {
	if !cfg.InfluxDB.Enabled {
		return nil
	}

	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Device.ID)
	if err != nil {
		log.Warn("InfluxDB unavailable, continuing without telemetry", "error", err)
		return nil
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	return client
}

// chirp sounds the startup pattern so an operator can hear the device is up.
func chirp(ctx context.Context, cfg config.BuzzerConfig, b alarm.Buzzer, log *logging.Logger) {
	total, on, off := cfg.ChirpPattern()
	if total == 0 {
		return
	}
	if err := b.Activate(ctx, buzzer.Pattern{Duration: total, On: on, Off: off}); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("startup chirp failed", "error", err)
	}
}

// recordedBuzzer writes a telemetry point for every completed pattern.
type recordedBuzzer struct {
	buzzer alarm.Buzzer
	influx *influxdb.Client
	reason string
}

func (r recordedBuzzer) Activate(ctx context.Context, p buzzer.Pattern) error {
	if err := r.buzzer.Activate(ctx, p); err != nil {
		return err
	}
	if r.influx != nil {
		r.influx.WriteBuzzerActivation(r.reason, p.Duration)
	}
	return nil
}

// validate prints the resolved settings, masking the network key.
func validate(w io.Writer, opts *options) error {
	log := logging.New(config.LoggingConfig{Level: "warn", Format: "text", Output: "stderr"}, version)

	s, err := loadSettings(opts.settingsPath, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s=%s\n", settings.KeySSID, s.SSID)
	fmt.Fprintf(w, "%s=%s\n", settings.KeyKey, "********")
	fmt.Fprintf(w, "%s=%d\n", settings.KeyMaxCon, s.MaxConnections)
	fmt.Fprintf(w, "%s=%d\n", settings.KeyTimeout, s.Timeout)
	fmt.Fprintf(w, "%s=%d\n", settings.KeyPort, s.Port)
	fmt.Fprintf(w, "%s=%t\n", settings.KeyStatic, s.Static)
	fmt.Fprintf(w, "%s=%s\n", settings.KeyAddr, s.Addr)
	fmt.Fprintf(w, "%s=%s\n", settings.KeyMask, s.Mask)
	fmt.Fprintf(w, "%s=%s\n", settings.KeyGateway, s.Gateway)
	fmt.Fprintf(w, "%s=%s\n", settings.KeyAddrFamily, s.Family())
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
