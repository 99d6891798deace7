package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	dbPath := flag.String("db", "", "SQLite database path (overrides server.db_path, \"off\" disables)")
	clientDir := flag.String("client", "", "Static client directory served at /")
	logPath := flag.String("log", "", "Log file for play mode (discarded when empty)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [serve|play]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	var db *DB
	if cfg.Server.DBPath != "off" {
		db, err = OpenDB(cfg.Server.DBPath)
		if err != nil {
			log.Printf("warning: database unavailable, running without persistence: %v", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	switch cmd := flag.Arg(0); cmd {
	case "", "serve":
		serve(cfg, db, *clientDir)
	case "play":
		if err := RunLocal(cfg, db, *logPath); err != nil {
			log.Fatalf("play: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func serve(cfg Config, db *DB, clientDir string) {
	hub := NewHub(cfg, db)
	go hub.Run()

	mux := SetupRoutes(hub, clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		if clientDir != "" {
			log.Printf("Serving client files from %s", clientDir)
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	hub.Shutdown()
}
