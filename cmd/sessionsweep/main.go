package main

import (
	"flag"
	"log"

	"github.com/webmaild/webmaild/config"
	"github.com/webmaild/webmaild/store"
)

var version = "dev"

// sessionsweep deletes expired session rows from the credential store.
// Expired sessions are already rejected on access; this just reclaims
// the rows. Intended to run from cron.
func main() {
	var confPath string
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.StringVar(&confPath, "config", "./config.yaml", "Path to the configuration file")
	flag.Parse()

	if showVersion {
		log.Printf("Version: %s", version)
		return
	}

	conf, err := config.Load(confPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	dispatcher := store.NewDispatcher(conf.DataDir, conf.Auth.SessionTTL)
	auth, err := dispatcher.Resolve(store.AuthKey)
	if err != nil {
		log.Fatalf("Error resolving auth store: %v", err)
	}

	removed, err := auth.SweepExpiredSessions()
	if err != nil {
		log.Fatalf("Error sweeping sessions: %v", err)
	}
	log.Printf("Removed %d expired sessions", removed)
}
