// Package cli holds the runnable commands behind the root dispatcher.
package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/daemon"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/neighbor"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/rib"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/version"
)

// RunDaemon starts one routing daemon. Interfaces come from argv tuples
// ("name:local_ip:peer_ip:bw:delay"), the YAML config file, or both.
func RunDaemon(args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	var (
		routerID   = fs.String("id", "", "router-id of this node")
		port       = fs.Int("port", 0, "control-plane UDP port (default 20001)")
		configFile = fs.String("config", "", "optional path to a YAML config file")
		statusAddr = fs.String("status-addr", "", "address for the admin/metrics HTTP listener")
		dataDir    = fs.String("data-dir", "", "directory for persisted state (intents)")
	)
	fs.Parse(args)

	cfg, err := loadDaemonConfig(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override the file; argv interface tuples are appended to its list.
	if *routerID != "" {
		cfg.RouterID = *routerID
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *statusAddr != "" {
		cfg.StatusAddr = *statusAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	for _, tuple := range fs.Args() {
		ifc, err := neighbor.ParseInterface(tuple)
		if err != nil {
			return err
		}
		cfg.Interfaces = append(cfg.Interfaces, ifc)
	}

	d, err := daemon.New(cfg, rib.NewKernelInstaller())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("%s starting router %s on UDP port %d", version.Short(), cfg.RouterID, cfg.Port)

	var httpServer *http.Server
	if cfg.StatusAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/", d.AdminHandler())

		httpServer = &http.Server{Addr: cfg.StatusAddr, Handler: mux}
		go func() {
			log.Printf("admin server starting on %s", cfg.StatusAddr)
			log.Println("  /health     - Health check")
			log.Println("  /neighbors  - Adjacency table")
			log.Println("  /lsdb       - Link-state database")
			log.Println("  /routes     - Installed routes")
			log.Println("  /intents    - Intent table")
			log.Println("  /interface  - POST ?name=X&up=bool admin status")
			log.Println("  /metrics    - Prometheus metrics")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("admin server error: %v", err)
			}
		}()
	}

	err = d.Run(ctx)

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
			log.Printf("error shutting down admin server: %v", serr)
		}
	}

	slog.Info("daemon stopped", "router_id", cfg.RouterID)
	return err
}

// loadDaemonConfig reads the optional YAML config file. A missing filename
// yields a zero config filled in by flags and argv.
func loadDaemonConfig(filename string) (daemon.Config, error) {
	type yamlConfig struct {
		Router struct {
			ID         string `yaml:"id"`
			Port       int    `yaml:"port"`
			HelloMs    int    `yaml:"hello_interval_ms"`
			DeadMs     int    `yaml:"dead_interval_ms"`
			RefreshSec int    `yaml:"refresh_interval_sec"`
			CoalesceMs int    `yaml:"coalesce_ms"`
			DataDir    string `yaml:"data_dir"`
			StatusAddr string `yaml:"status_addr"`
		} `yaml:"router"`
		Interfaces []string      `yaml:"interfaces"`
		Stubs      []daemon.Stub `yaml:"stubs"`
	}

	var cfg daemon.Config
	if filename == "" {
		return cfg, nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var ymlCfg yamlConfig
	if err := yaml.NewDecoder(file).Decode(&ymlCfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.RouterID = ymlCfg.Router.ID
	cfg.Port = ymlCfg.Router.Port
	cfg.HelloInterval = time.Duration(ymlCfg.Router.HelloMs) * time.Millisecond
	cfg.DeadInterval = time.Duration(ymlCfg.Router.DeadMs) * time.Millisecond
	cfg.RefreshInterval = time.Duration(ymlCfg.Router.RefreshSec) * time.Second
	cfg.CoalesceWindow = time.Duration(ymlCfg.Router.CoalesceMs) * time.Millisecond
	cfg.DataDir = ymlCfg.Router.DataDir
	cfg.StatusAddr = ymlCfg.Router.StatusAddr
	cfg.Stubs = ymlCfg.Stubs

	for _, tuple := range ymlCfg.Interfaces {
		ifc, err := neighbor.ParseInterface(tuple)
		if err != nil {
			return cfg, err
		}
		cfg.Interfaces = append(cfg.Interfaces, ifc)
	}

	return cfg, nil
}
