// Command tso-lease runs a single replica of the lease-election core:
// it acquires and renews a CAS-versioned lease against a coordination
// service, promotes itself on first acquisition, and serves a small
// control/observability API over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/tso-lease/internal/clock"
	"github.com/marmos91/tso-lease/internal/logger"
	"github.com/marmos91/tso-lease/internal/netutil"
	"github.com/marmos91/tso-lease/internal/telemetry"
	"github.com/marmos91/tso-lease/pkg/api"
	"github.com/marmos91/tso-lease/pkg/archive"
	"github.com/marmos91/tso-lease/pkg/config"
	"github.com/marmos91/tso-lease/pkg/coordination"
	"github.com/marmos91/tso-lease/pkg/coordination/badger"
	"github.com/marmos91/tso-lease/pkg/coordination/etcd"
	"github.com/marmos91/tso-lease/pkg/coordination/memory"
	"github.com/marmos91/tso-lease/pkg/election"
	"github.com/marmos91/tso-lease/pkg/ledger"
	"github.com/marmos91/tso-lease/pkg/lifecycle"
	"github.com/marmos91/tso-lease/pkg/metrics"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "start":
		runStart(os.Args[2:])
	case "init":
		runInit(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tso-lease - lease-based master election daemon

Usage:
  tso-lease <command> [flags]

Commands:
  start    Run the replica (acquire/renew the lease, serve the control API)
  init     Write a default configuration file
  version  Show version information
  help     Show this help text`)
}

func printVersion() {
	fmt.Printf("tso-lease %s\n", Version)
	fmt.Printf("  Commit: %s\n", Commit)
	fmt.Printf("  Built:  %s\n", Date)
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	outPath := fs.String("out", config.GetDefaultConfigPath(), "path to write the config file")
	_ = fs.Parse(args)

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote default configuration to %s\n", *outPath)
}

func runStart(args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the config file")
	_ = fs.Parse(args)

	cfg, err := config.MustLoad(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "tso-lease",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		logger.Error("failed to initialize telemetry", logger.Err(err))
		os.Exit(1)
	}
	defer func() { _ = telemetryShutdown(context.Background()) }()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "tso-lease",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		logger.Error("failed to initialize profiling", logger.Err(err))
		os.Exit(1)
	}
	defer func() { _ = profilingShutdown() }()

	var electionMetrics *metrics.ElectionMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		electionMetrics = metrics.NewElectionMetrics()
	}

	gateway, closeGateway, err := buildGateway(cfg.Coordination)
	if err != nil {
		logger.Error("failed to initialize coordination gateway", logger.Err(err))
		os.Exit(1)
	}
	if closeGateway != nil {
		defer func() { _ = closeGateway() }()
	}

	hostAndPort := cfg.Election.HostAndPort
	if hostAndPort == "" && cfg.Election.NetworkInterfaceName != "" {
		discovered, err := netutil.DiscoverHostAndPort(cfg.Election.NetworkInterfaceName, cfg.Election.Port)
		if err != nil {
			logger.Error("failed to discover host:port from network interface", logger.Err(err))
			os.Exit(1)
		}
		hostAndPort = discovered
	}
	if hostAndPort == "" {
		hostAndPort = cfg.API.ListenAddr
	}

	controller := election.NewController(
		gateway,
		clock.New(),
		&election.NoopStateManager{},
		election.RealPanicker{},
		electionMetrics,
		election.Config{
			HostAndPort:          hostAndPort,
			LeasePeriod:          cfg.Election.LeasePeriod,
			PollInterval:         cfg.Election.PollInterval,
			PromotionStopTimeout: cfg.Election.PromotionStopTimeout,
			LeasePath:            cfg.Election.LeasePath,
			CurrentPath:          cfg.Election.CurrentPath,
		},
	)

	var ledgerStore *ledger.Store
	if cfg.Ledger.Enabled {
		store, err := ledger.Open(ledger.Config{
			Driver:       ledger.Driver(cfg.Ledger.Driver),
			DSN:          cfg.Ledger.DSN,
			MaxOpenConns: cfg.Ledger.MaxOpenConns,
			MaxIdleConns: cfg.Ledger.MaxIdleConns,
			ConnMaxLife:  cfg.Ledger.ConnMaxLife,
		})
		if err != nil {
			logger.Error("failed to open promotion ledger", logger.Err(err))
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		controller.SetLedgerRecorder(store)
		ledgerStore = store
	}

	apiServer, err := api.NewServer(cfg.API, controller)
	if err != nil {
		logger.Error("failed to initialize control API server", logger.Err(err))
		os.Exit(1)
	}

	svc := lifecycle.New(controller, apiServer, cfg.ShutdownTimeout)

	if cfg.Archive.Enabled {
		if ledgerStore == nil {
			logger.Error("archive is enabled but the promotion ledger is not; archive has nothing to export")
			os.Exit(1)
		}
		client, err := archive.NewClientFromConfig(ctx, archive.Config{
			Bucket:   cfg.Archive.Bucket,
			Prefix:   cfg.Archive.Prefix,
			Region:   cfg.Archive.Region,
			Endpoint: cfg.Archive.Endpoint,
		})
		if err != nil {
			logger.Error("failed to initialize archive S3 client", logger.Err(err))
			os.Exit(1)
		}
		archiver := archive.New(client, cfg.Archive.Bucket, cfg.Archive.Prefix)
		svc.SetArchiver(archiver, ledgerStore, cfg.Archive.Interval)
	}

	logger.Info("starting replica", logger.ReplicaHost(hostAndPort))
	if err := svc.Serve(ctx); err != nil {
		logger.Error("replica exited with error", logger.Err(err))
		os.Exit(1)
	}
	logger.Info("replica stopped cleanly")
}

// buildGateway constructs the configured coordination.Gateway. The
// returned close func is nil for backends that own no closable
// resource (the in-memory fake).
func buildGateway(cfg config.CoordinationConfig) (coordination.Gateway, func() error, error) {
	switch cfg.Backend {
	case "etcd":
		gw, err := etcd.Open(etcd.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: cfg.Etcd.DialTimeout,
			Username:    cfg.Etcd.Username,
			Password:    cfg.Etcd.Password,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, gw.Close, nil
	case "badger":
		gw, err := badger.Open(cfg.Badger.Dir)
		if err != nil {
			return nil, nil, err
		}
		return gw, gw.Close, nil
	case "memory":
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown coordination backend: %q", cfg.Backend)
	}
}
