// ABOUTME: Entry point for the Undertone steganography server
// ABOUTME: Parses CLI flags, merges the YAML config and starts the service
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Undertone-Audio/undertone-go/internal/config"
	"github.com/Undertone-Audio/undertone-go/internal/server"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	port       = flag.Int("port", config.DefaultPort, "HTTP and WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-undertone-server)")
	logFile    = flag.String("log-file", "undertone-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI     = flag.Bool("tui", false, "Show the dashboard TUI")
)

func main() {
	flag.Parse()

	// Set up logging: file and console, file only when the TUI owns
	// the terminal
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if *useTUI {
		log.SetOutput(f)
	} else {
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	// Without a config file the server takes a hostname-derived name
	if *configPath == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Server.Name = fmt.Sprintf("%s-undertone-server", hostname)
	}
	applyFlags(&cfg)

	log.Printf("Starting %s on port %d", cfg.Server.Name, cfg.Server.Port)
	if cfg.Server.Debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	// Create server
	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		Name:           cfg.Server.Name,
		EnableMDNS:     cfg.Server.EnableMDNS,
		Debug:          cfg.Server.Debug,
		UseTUI:         *useTUI,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Defaults:       cfg.Echo,
	})

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("\nReceived %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	// Start server
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}

// applyFlags lets flags given on the command line override the file
func applyFlags(cfg *config.File) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Server.Port = *port
		case "name":
			cfg.Server.Name = *name
		case "debug":
			cfg.Server.Debug = *debug
		case "no-mdns":
			cfg.Server.EnableMDNS = !*noMDNS
		}
	})
}
