// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"

	"github.com/SoftbearStudios/realmwalk/server"
	"github.com/SoftbearStudios/realmwalk/server/cloud"
	"github.com/SoftbearStudios/realmwalk/server/config"
	"golang.org/x/net/netutil"
)

func main() {
	var (
		configPath     string
		realm          string
		port           int
		maxConnections int
		speed          float64
	)

	flag.StringVar(&configPath, "config", "", "yaml config, overlaid on the defaults")
	flag.StringVar(&realm, "realm", "", "realm to stream (default from config)")
	flag.IntVar(&port, "port", 8192, "http service port")
	flag.IntVar(&maxConnections, "max-connections", 256, "maximum number of inbound TCP connections")
	flag.Float64Var(&speed, "speed", 8, "walking speed in meters per second")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal(err)
		}
	}
	if realm != "" {
		cfg.Realm = realm
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	c, err := cloud.New(cfg.Cloud())
	if err != nil {
		// Cloud is not required for server to function, just log an error
		log.Printf("Cloud error: %v\n", err)
	}
	defer c.Close()

	hub, err := server.NewHub(server.HubOptions{
		Config: cfg,
		Cloud:  c,
		Speed:  float32(speed),
	})
	if err != nil {
		log.Fatal(err)
	}

	go hub.Run()

	if port < 0 {
		log.Println("realmwalk simulation started", hub)
		// Block forever
		<-make(chan struct{})
	}

	log.Printf("realmwalk server started on :%d %s\n", port, hub)

	http.HandleFunc("/", hub.ServeIndex)
	http.HandleFunc("/map.png", hub.ServeMap)
	http.HandleFunc("/ws", hub.ServeSocket)

	l, err := net.Listen("tcp", fmt.Sprint(":", port))

	if err != nil {
		log.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	l = netutil.LimitListener(l, maxConnections)

	log.Fatal("ListenAndServe: ", http.Serve(l, nil))
}
