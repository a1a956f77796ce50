package main

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
policy:
  tileSize: 2097152
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
  shardCount: 2
  allowSplit: true
  resolution: coarse
  maxTilesPerDomain: 1024
  budgetUnits: 0
  globalSeed: 1
server:
  listenAddr: ":8080"
  streamHintEveryMs: 500
`

const sampleFixture = `
shard.input
domain_id=1 flags=1
domain_id=2 flags=0
`

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestBuildShardIndexProducesAssignments(t *testing.T) {
	fixturePath := writeTemp(t, "fixture.txt", sampleFixture)
	configPath := writeTemp(t, "config.yaml", sampleConfig)

	idx, err := buildShardIndex(fixturePath, configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Count() == 0 {
		t.Fatal("expected at least one assignment from the ball-source domains")
	}
}

func TestRenderShardMapSVGProducesNonEmptyDocument(t *testing.T) {
	fixturePath := writeTemp(t, "fixture.txt", sampleFixture)
	configPath := writeTemp(t, "config.yaml", sampleConfig)

	idx, err := buildShardIndex(fixturePath, configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := renderShardMapSVG(idx, defaultVizOptions())
	if len(data) == 0 {
		t.Fatal("expected non-empty SVG output")
	}
}
