package main

import (
	"flag"
	"log"

	"github.com/webmaild/webmaild/config"
	"github.com/webmaild/webmaild/objectstorage"
	"github.com/webmaild/webmaild/server"
	"github.com/webmaild/webmaild/store"
	"github.com/webmaild/webmaild/transfer"
)

var version = "dev"

func main() {
	var confPath string
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.StringVar(&confPath, "config", "config.yaml", "Path to config file")
	flag.Parse()

	if showVersion {
		log.Printf("Version: %s", version)
		return
	}

	conf, err := config.Load(confPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	blobs, err := objectstorage.New(conf.ObjectStorage)
	if err != nil {
		log.Fatalf("Failed to create object storage client: %v", err)
	}

	dispatcher := store.NewDispatcher(conf.DataDir, conf.Auth.SessionTTL)

	auth, err := dispatcher.Resolve(store.AuthKey)
	if err != nil {
		log.Fatalf("Failed to initialize auth store: %v", err)
	}
	if len(conf.Auth.DefaultAdmins) > 0 {
		if conf.Auth.BootstrapPassword == "" {
			log.Fatal("Auth.BootstrapPassword is required when DefaultAdmins is set")
		}
		if err := auth.EnsureDefaultAdmins(conf.Auth.DefaultAdmins, conf.Auth.BootstrapPassword); err != nil {
			log.Fatalf("Failed to seed default admins: %v", err)
		}
	}

	deliverer := &transfer.Deliverer{Addr: conf.SMTP.Addr}

	e := server.New(conf, dispatcher, blobs, deliverer)
	e.Logger.Fatal(e.Start(conf.Listen))
}
