// glowstate - snapshot and restore for Govee-style smart lights.
//
// glowstate captures the live state of every light on an account
// (power, brightness, colour or colour temperature) and can later
// replay those snapshots back onto the devices in the correct order.
// Commands prefer the LAN UDP path when a device address is known and
// fall back to the cloud API otherwise.
//
// Usage:
//
//	glowstate sync                       refresh the device catalogue from the cloud
//	glowstate list                       list catalogued devices
//	glowstate session [id ...] [-- cmd]  save, hold until cmd exits or ctrl-c, then restore
//	glowstate save [id ...]              capture device state
//	glowstate get <id>                   show the held snapshot for a device
//	glowstate restore [id ...]           replay held snapshots
//	glowstate clear [id ...]             drop held snapshots
//	glowstate watch                      follow snapshot events on MQTT
//
// Snapshots live in memory and last for one process: save, get, restore,
// and clear compose within a single session invocation, which is how the
// engine is meant to be driven (snapshot, run a light sequence, put
// everything back). The standalone verbs exist for exercising one phase
// at a time.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"syscall"
	"time"

	_ "github.com/aurorelabs/glowstate/migrations"

	"github.com/aurorelabs/glowstate/internal/device"
	"github.com/aurorelabs/glowstate/internal/infrastructure/config"
	"github.com/aurorelabs/glowstate/internal/infrastructure/database"
	"github.com/aurorelabs/glowstate/internal/infrastructure/influxdb"
	"github.com/aurorelabs/glowstate/internal/infrastructure/logging"
	"github.com/aurorelabs/glowstate/internal/infrastructure/mqtt"
	"github.com/aurorelabs/glowstate/internal/snapshot"
	"github.com/aurorelabs/glowstate/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// scanWait is how long a LAN discovery scan listens for replies.
const scanWait = 3 * time.Second

// sessionRestoreTimeout bounds the restore phase of a session once the
// held window ends. The signal context is spent by then, so the restore
// needs its own deadline.
const sessionRestoreTimeout = time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches the subcommand, separated from main for testability.
func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("glowstate", flag.ContinueOnError)
	configPath := flags.String("config", getConfigPath(), "path to config file")
	strict := flags.Bool("strict", false, "fail restore when any device sequence fails")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if flags.NArg() == 0 {
		return errors.New("missing command (sync, list, session, save, get, restore, clear, watch)")
	}
	command := flags.Arg(0)
	rest := flags.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *strict {
		cfg.Snapshot.Strict = true
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("starting glowstate", "version", version, "commit", commit, "command", command)

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	switch command {
	case "sync":
		return app.runSync(ctx)
	case "list":
		return app.runList(ctx)
	case "session":
		return app.runSession(ctx, rest)
	case "save":
		return app.runSave(ctx, rest)
	case "get":
		return app.runGet(rest)
	case "restore":
		return app.runRestore(ctx, rest)
	case "clear":
		return app.runClear(rest)
	case "watch":
		return app.runWatch(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// getConfigPath returns the configuration file path.
// Uses GLOWSTATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GLOWSTATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// app holds the wired application components for one command invocation.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	db       *database.DB
	registry *device.Registry
	client   *transport.Client
	lan      *transport.LANClient
	manager  *snapshot.Manager
	mqtt     *mqtt.Client
	influx   *influxdb.Client
}

// newApp opens the catalogue, runs migrations, and wires the transport
// and snapshot layers. MQTT and InfluxDB are attached only when enabled
// in the configuration; every command works without them.
func newApp(ctx context.Context, cfg *config.Config, log *logging.Logger) (*app, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	repo := device.NewSQLiteRepository(db.DB)
	registry := device.NewRegistry(repo)
	registry.SetLogger(log)
	if err := registry.RefreshCache(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("loading device registry: %w", err)
	}

	cloud := transport.NewCloudClient(cfg.Govee.BaseURL, cfg.Govee.APIKey, cfg.GetCloudTimeout())
	cloud.SetLogger(log)

	var lan *transport.LANClient
	if cfg.LAN.Enabled {
		lan, err = transport.NewLANClient(cfg.LAN.ResponsePort, cfg.LAN.CommandPort, cfg.GetLANTimeout())
		if err != nil {
			db.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, fmt.Errorf("opening LAN socket: %w", err)
		}
		lan.SetLogger(log)
	}

	client := transport.NewClient(cloud, lan, registry)
	client.SetLogger(log)

	manager := snapshot.NewManager(client)
	manager.SetLogger(log)
	manager.SetWorkers(cfg.Snapshot.Workers)
	manager.SetSettleDelays(cfg.GetPowerOnSettle(), cfg.GetColorSettle())
	manager.SetStrict(cfg.Snapshot.Strict)

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		registry: registry,
		client:   client,
		lan:      lan,
		manager:  manager,
	}

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		a.mqtt = mqttClient
		manager.SetEventPublisher(mqttClient)
		log.Debug("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		)
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		a.influx = influxClient
		manager.SetRecorder(influxClient)
		log.Debug("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	return a, nil
}

// close releases the app's connections in reverse wiring order.
func (a *app) close() {
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	}
	if a.mqtt != nil {
		if err := a.mqtt.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	}
	if a.lan != nil {
		if err := a.lan.Close(); err != nil {
			a.log.Error("error closing LAN socket", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Error("error closing database", "error", err)
	}
}

// runSync refreshes the catalogue from the cloud account, then runs a
// LAN discovery scan to learn device addresses for the fast path.
func (a *app) runSync(ctx context.Context) error {
	devices, err := a.client.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	if err := a.registry.SyncDevices(ctx, devices); err != nil {
		return fmt.Errorf("syncing catalogue: %w", err)
	}
	fmt.Printf("synced %d devices\n", len(devices))

	if a.lan == nil {
		return nil
	}

	scanCtx, cancel := context.WithTimeout(ctx, scanWait)
	defer cancel()
	addrs, err := a.lan.Scan(scanCtx, scanWait)
	if err != nil {
		a.log.Warn("LAN scan failed", "error", err)
		return nil
	}

	found := 0
	for id, addr := range addrs {
		addr := addr
		if err := a.registry.SetDeviceAddr(ctx, id, &addr); err != nil {
			if errors.Is(err, device.ErrDeviceNotFound) {
				a.log.Debug("scan found unknown device", "device", id, "addr", addr)
				continue
			}
			return fmt.Errorf("recording device address: %w", err)
		}
		found++
	}
	fmt.Printf("LAN scan found %d devices\n", found)
	return nil
}

// runList prints the catalogued devices.
func (a *app) runList(ctx context.Context) error {
	devices, err := a.registry.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	for _, d := range devices {
		addr := "-"
		if d.Addr != nil {
			addr = *d.Addr
		}
		fmt.Printf("%s  %-10s %-16s %s\n", d.ID, d.SKU, addr, d.Name)
	}
	fmt.Printf("%d devices\n", len(devices))
	return nil
}

// runSave captures state for the named devices, or all catalogued
// devices when none are named.
func (a *app) runSave(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		ids = a.registry.DeviceIDs()
	}

	snaps := a.manager.Save(ctx, ids)

	degraded := 0
	for _, snap := range snaps {
		if snap.IsDegraded() {
			degraded++
		}
	}
	fmt.Printf("saved %d snapshots (%d degraded)\n", len(snaps), degraded)
	return nil
}

// runGet prints the held snapshot for one device as JSON.
func (a *app) runGet(ids []string) error {
	if len(ids) != 1 {
		return errors.New("get takes exactly one device id")
	}

	snap, err := a.manager.Get(ids[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// runSession captures state, holds it while a sequence runs, then
// restores it. With a trailing "-- cmd [args]" the sequence is that
// command; otherwise the session holds until interrupted. This is the
// composed save/restore flow: both phases share one in-memory store.
func (a *app) runSession(ctx context.Context, args []string) error {
	ids, childArgs := splitSessionArgs(args)
	if len(ids) == 0 {
		ids = a.registry.DeviceIDs()
	}

	snaps := a.manager.Save(ctx, ids)
	fmt.Printf("saved %d snapshots\n", len(snaps))

	if len(childArgs) > 0 {
		cmd := exec.CommandContext(ctx, childArgs[0], childArgs[1:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			a.log.Warn("session command failed, restoring anyway", "error", err)
		}
	} else {
		fmt.Println("holding snapshots; ctrl-c restores and exits")
		<-ctx.Done()
	}

	// The interrupt that ends the session has already spent ctx, so
	// the restore runs under its own deadline.
	restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionRestoreTimeout)
	defer cancel()
	return a.restoreAndReport(restoreCtx, ids)
}

// splitSessionArgs separates device ids from an optional child command
// following a "--" marker.
func splitSessionArgs(args []string) (ids, childArgs []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

// runRestore replays held snapshots onto the named devices, or every
// held snapshot when none are named.
func (a *app) runRestore(ctx context.Context, ids []string) error {
	return a.restoreAndReport(ctx, ids)
}

// restoreAndReport runs a restore batch and prints its outcome.
func (a *app) restoreAndReport(ctx context.Context, ids []string) error {
	results, err := a.manager.Restore(ctx, ids)

	restored := make([]string, 0, len(results))
	failed := make([]string, 0)
	for id, ok := range results {
		if ok {
			restored = append(restored, id)
		} else {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)

	fmt.Printf("restored %d devices\n", len(restored))
	for _, id := range failed {
		fmt.Printf("failed: %s\n", id)
	}
	return err
}

// runClear drops held snapshots.
func (a *app) runClear(ids []string) error {
	removed := a.manager.Clear(ids...)
	fmt.Printf("cleared %d snapshots\n", removed)
	return nil
}

// runWatch subscribes to snapshot events and prints them until
// interrupted. Requires MQTT to be enabled.
func (a *app) runWatch(ctx context.Context) error {
	if a.mqtt == nil {
		return errors.New("watch requires mqtt.enabled: true")
	}

	topics := mqtt.Topics{}
	err := a.mqtt.Subscribe(topics.AllEvents(), byte(a.cfg.MQTT.QoS), func(topic string, payload []byte) error {
		fmt.Printf("%s %s\n", topic, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}

	fmt.Printf("watching %s (ctrl-c to stop)\n", topics.AllEvents())
	<-ctx.Done()
	return nil
}
