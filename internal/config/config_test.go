package config_test

import (
	"testing"

	"github.com/Julesc013/dominium-sub018/internal/config"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
)

const validYAML = `
policy:
  tileSize: 4194304
  maxResolution: full
  sampleDimFull: 8
  sampleDimMedium: 4
  sampleDimCoarse: 2
  costFull: 100
  costMedium: 40
  costCoarse: 10
  costAnalytic: 5
  tileBuildCostFull: 80
  tileBuildCostMedium: 30
  tileBuildCostCoarse: 10
  rayStep: 65536
  maxRaySteps: 64
partition:
  shardCount: 4
  allowSplit: true
  resolution: coarse
  maxTilesPerDomain: 1024
  budgetUnits: 0
  globalSeed: 1
server:
  listenAddr: ":8080"
  streamHintEveryMs: 500
`

func TestLoadConfigFromBytesValid(t *testing.T) {
	cfg, err := config.LoadConfigFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Policy.MaxResolutionValue() != tile.ResFull {
		t.Fatalf("expected ResFull, got %v", cfg.Policy.MaxResolutionValue())
	}
	if cfg.Partition.ResolutionValue() != tile.ResCoarse {
		t.Fatalf("expected ResCoarse, got %v", cfg.Partition.ResolutionValue())
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %q", cfg.Server.ListenAddr)
	}
}

func TestValidateRejectsZeroTileSize(t *testing.T) {
	cfg, err := config.LoadConfigFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Policy.TileSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a zero tile size")
	}
}

func TestValidateRejectsUnknownResolution(t *testing.T) {
	cfg, err := config.LoadConfigFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Partition.Resolution = "ultra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unknown resolution name")
	}
}

func TestValidateRejectsEmptyListenAddr(t *testing.T) {
	cfg, err := config.LoadConfigFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Server.ListenAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an empty listen address")
	}
}

func TestLoadConfigMissingFileWraps(t *testing.T) {
	if _, err := config.LoadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
