// Package config loads the YAML documents that configure a volume's cost
// ladder, a shard mapper's partition parameters, and the domainserver's
// listen address. It mirrors the teacher's Config/Validate/LoadConfig
// shape: explicit fields, a Validate() method per nested struct, and a
// LoadConfig/LoadConfigFromBytes pair — re-typed for this module's
// domain rather than dungeon generation parameters.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
)

// Config is the top-level document: a volume policy, shard partition
// parameters, and the server's listen configuration.
type Config struct {
	// Policy configures every volume's cost ladder.
	Policy PolicyCfg `yaml:"policy" json:"policy"`

	// Partition configures the shard mapper.
	Partition PartitionCfg `yaml:"partition" json:"partition"`

	// Server configures domainserver's listen address.
	Server ServerCfg `yaml:"server" json:"server"`
}

// PolicyCfg mirrors volume.Policy with YAML tags.
type PolicyCfg struct {
	// TileSize is the Q16.16 world-unit edge length of one tile. Must be > 0.
	TileSize int32 `yaml:"tileSize" json:"tileSize"`

	// MaxResolution caps how fine the ladder is allowed to go: one of
	// "full", "medium", "coarse", "analytic".
	MaxResolution string `yaml:"maxResolution" json:"maxResolution"`

	SampleDimFull   uint32 `yaml:"sampleDimFull" json:"sampleDimFull"`
	SampleDimMedium uint32 `yaml:"sampleDimMedium" json:"sampleDimMedium"`
	SampleDimCoarse uint32 `yaml:"sampleDimCoarse" json:"sampleDimCoarse"`

	CostFull     uint32 `yaml:"costFull" json:"costFull"`
	CostMedium   uint32 `yaml:"costMedium" json:"costMedium"`
	CostCoarse   uint32 `yaml:"costCoarse" json:"costCoarse"`
	CostAnalytic uint32 `yaml:"costAnalytic" json:"costAnalytic"`

	TileBuildCostFull   uint32 `yaml:"tileBuildCostFull" json:"tileBuildCostFull"`
	TileBuildCostMedium uint32 `yaml:"tileBuildCostMedium" json:"tileBuildCostMedium"`
	TileBuildCostCoarse uint32 `yaml:"tileBuildCostCoarse" json:"tileBuildCostCoarse"`

	// RayStep is the Q16.16 march step for RayIntersect. Must be > 0.
	RayStep     int32  `yaml:"rayStep" json:"rayStep"`
	MaxRaySteps uint32 `yaml:"maxRaySteps" json:"maxRaySteps"`
}

// PartitionCfg mirrors shard.PartitionParams with YAML tags.
type PartitionCfg struct {
	ShardCount        uint32 `yaml:"shardCount" json:"shardCount"`
	AllowSplit        bool   `yaml:"allowSplit" json:"allowSplit"`
	Resolution        string `yaml:"resolution" json:"resolution"`
	MaxTilesPerDomain uint32 `yaml:"maxTilesPerDomain" json:"maxTilesPerDomain"`
	BudgetUnits       uint32 `yaml:"budgetUnits" json:"budgetUnits"`
	GlobalSeed        uint64 `yaml:"globalSeed" json:"globalSeed"`
}

// ServerCfg configures domainserver's HTTP/WebSocket listener.
type ServerCfg struct {
	ListenAddr      string `yaml:"listenAddr" json:"listenAddr"`
	StreamHintEvery uint32 `yaml:"streamHintEveryMs" json:"streamHintEveryMs"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes parses and validates YAML configuration from a
// byte slice. Useful for testing and programmatic config generation.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks every nested section's constraints.
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if err := c.Partition.Validate(); err != nil {
		return fmt.Errorf("partition: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Validate checks PolicyCfg constraints.
func (p *PolicyCfg) Validate() error {
	if p.TileSize <= 0 {
		return fmt.Errorf("tileSize must be > 0, got %d", p.TileSize)
	}
	if _, ok := resolutionByName(p.MaxResolution); !ok {
		return fmt.Errorf("invalid maxResolution %q, must be one of: full, medium, coarse, analytic", p.MaxResolution)
	}
	if p.RayStep <= 0 {
		return fmt.Errorf("rayStep must be > 0, got %d", p.RayStep)
	}
	if p.MaxRaySteps == 0 {
		return errors.New("maxRaySteps must be > 0")
	}
	return nil
}

// Validate checks PartitionCfg constraints.
func (p *PartitionCfg) Validate() error {
	if p.ShardCount == 0 {
		return errors.New("shardCount must be > 0")
	}
	if _, ok := resolutionByName(p.Resolution); !ok {
		return fmt.Errorf("invalid resolution %q, must be one of: full, medium, coarse, analytic", p.Resolution)
	}
	return nil
}

// Validate checks ServerCfg constraints.
func (s *ServerCfg) Validate() error {
	if s.ListenAddr == "" {
		return errors.New("listenAddr must not be empty")
	}
	return nil
}

func resolutionByName(name string) (tile.Resolution, bool) {
	switch name {
	case "full":
		return tile.ResFull, true
	case "medium":
		return tile.ResMedium, true
	case "coarse":
		return tile.ResCoarse, true
	case "analytic":
		return tile.ResAnalytic, true
	default:
		return tile.ResRefused, false
	}
}

// MaxResolutionValue resolves PolicyCfg.MaxResolution to a tile.Resolution.
// Callers build a volume.Policy themselves from these accessors, rather
// than this package importing pkg/volume solely for one struct literal.
func (p *PolicyCfg) MaxResolutionValue() tile.Resolution {
	res, _ := resolutionByName(p.MaxResolution)
	return res
}

// TileSizeQ16 returns TileSize reinterpreted as a fixedpoint.Q16 value.
func (p *PolicyCfg) TileSizeQ16() fixedpoint.Q16 {
	return fixedpoint.Q16(p.TileSize)
}

// RayStepQ16 returns RayStep reinterpreted as a fixedpoint.Q16 value.
func (p *PolicyCfg) RayStepQ16() fixedpoint.Q16 {
	return fixedpoint.Q16(p.RayStep)
}

// ResolutionValue resolves PartitionCfg.Resolution to a tile.Resolution.
func (p *PartitionCfg) ResolutionValue() tile.Resolution {
	res, _ := resolutionByName(p.Resolution)
	return res
}

// ToYAML serializes the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
