// Command domainserver exposes the domain engine over HTTP and
// WebSocket: spatial queries against registered volumes, shard
// partitioning, institution/standard region reads, and a streaming-hint
// advisory feed for installers.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Julesc013/dominium-sub018/internal/config"
	"github.com/Julesc013/dominium-sub018/internal/fixture"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML policy/partition/server config (required)")
	fixturePath := flag.String("fixture", "", "optional fixture file to seed the registry at startup")
	listenOverride := flag.String("listen", "", "override the config's listen address")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("Error: -config flag is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	addr := cfg.Server.ListenAddr
	if *listenOverride != "" {
		addr = *listenOverride
	}

	reg := newRegistry()
	if *fixturePath != "" {
		fx, err := fixture.Load(*fixturePath)
		if err != nil {
			log.Fatalf("Error loading fixture: %v", err)
		}
		reg.loadFixture(fx)
	}

	h := newHub()
	go h.run()

	streamEvery := time.Duration(cfg.Server.StreamHintEvery) * time.Millisecond
	if streamEvery <= 0 {
		streamEvery = 500 * time.Millisecond
	}
	go runHintLoop(h, reg, streamEvery, cfg.Partition.BudgetUnits)

	s := &server{reg: reg, hub: h, budgetUnits: cfg.Partition.BudgetUnits}
	router := setupRouter(s)

	fmt.Printf("domainserver listening on %s\n", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
