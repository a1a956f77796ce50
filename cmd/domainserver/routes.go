package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Julesc013/dominium-sub018/internal/authority"
	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/shard"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

type server struct {
	reg         *registry
	hub         *hub
	budgetUnits uint32
}

func setupRouter(s *server) *gin.Engine {
	r := gin.Default()

	// Every response carries a request-correlation id. If the caller
	// presents a jurisdiction header, it is wrapped as a read-only
	// authority.Token and stored on the context under "authorityToken"; no
	// handler reads or logs it. The server never mints a MUTATING token or
	// validates one itself
	// (SPEC_FULL.md §6/§6a); that is an upstream auth-gateway concern.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-Id", uuid.NewString())
		if jurisdiction := c.GetHeader("X-Jurisdiction"); jurisdiction != "" {
			c.Set("authorityToken", &authority.Token{
				AuditIdentity: uuid.New(),
				Jurisdiction:  jurisdiction,
				Kind:          authority.KindReadOnly,
			})
		}
		c.Next()
	})

	v1 := r.Group("/v1")
	{
		vol := v1.Group("/volumes/:domain/query")
		vol.POST("/contains", s.handleContains)
		vol.POST("/distance", s.handleDistance)
		vol.POST("/closest-point", s.handleClosestPoint)
		vol.POST("/ray", s.handleRay)

		v1.POST("/shard/map", s.handleShardMap)
		v1.GET("/institution/:domain/region/:id", s.handleInstitutionRegion)
		v1.GET("/standard/:domain/region/:id", s.handleStandardRegion)
		v1.GET("/stream/hints", func(c *gin.Context) { s.hub.subscribe(c) })
	}
	return r
}

func parsePoint(body pointBody) tile.Point {
	return tile.Point{
		X: fixedpoint.FromFloat64(body.X),
		Y: fixedpoint.FromFloat64(body.Y),
		Z: fixedpoint.FromFloat64(body.Z),
	}
}

type pointBody struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (s *server) domainVolume(c *gin.Context) (*volume.Volume, bool) {
	domainID, err := strconv.ParseUint(c.Param("domain"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain id"})
		return nil, false
	}
	v, ok := s.reg.volume(domainID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return nil, false
	}
	return v, true
}

func (s *server) handleContains(c *gin.Context) {
	v, ok := s.domainVolume(c)
	if !ok {
		return
	}
	var body pointBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	budget := volume.NewBudget(s.budgetUnits)
	inside, meta := volume.Contains(v, parsePoint(body), budget)
	c.JSON(http.StatusOK, gin.H{"inside": inside, "meta": meta})
}

func (s *server) handleDistance(c *gin.Context) {
	v, ok := s.domainVolume(c)
	if !ok {
		return
	}
	var body pointBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	budget := volume.NewBudget(s.budgetUnits)
	result := volume.Distance(v, parsePoint(body), budget)
	c.JSON(http.StatusOK, result)
}

func (s *server) handleClosestPoint(c *gin.Context) {
	v, ok := s.domainVolume(c)
	if !ok {
		return
	}
	var body pointBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	budget := volume.NewBudget(s.budgetUnits)
	result := volume.ClosestPoint(v, parsePoint(body), budget)
	c.JSON(http.StatusOK, result)
}

type rayBody struct {
	Origin      pointBody `json:"origin"`
	Direction   pointBody `json:"direction"`
	MaxDistance float64   `json:"maxDistance"`
}

func (s *server) handleRay(c *gin.Context) {
	v, ok := s.domainVolume(c)
	if !ok {
		return
	}
	var body rayBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ray := volume.Ray{
		Origin:      parsePoint(body.Origin),
		Direction:   parsePoint(body.Direction),
		MaxDistance: fixedpoint.FromFloat64(body.MaxDistance),
	}
	budget := volume.NewBudget(s.budgetUnits)
	result := volume.RayIntersect(v, ray, budget)
	c.JSON(http.StatusOK, result)
}

type shardMapBody struct {
	Params shardParamsBody `json:"params"`
	Inputs []shardInputRef `json:"inputs"`
}

type shardParamsBody struct {
	ShardCount        uint32 `json:"shardCount"`
	AllowSplit        bool   `json:"allowSplit"`
	MaxTilesPerDomain uint32 `json:"maxTilesPerDomain"`
	BudgetUnits       uint32 `json:"budgetUnits"`
	GlobalSeed        uint64 `json:"globalSeed"`
}

type shardInputRef struct {
	DomainID uint64 `json:"domainId"`
	Flags    uint32 `json:"flags"`
}

// handleShardMap runs the shard mapper against registered volumes; a
// caller names which registered domains to map rather than uploading raw
// SDF sources over the wire (the core's tile.Source is an in-process
// interface, not a wire format).
func (s *server) handleShardMap(c *gin.Context) {
	var body shardMapBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params := shard.DefaultPartitionParams()
	if body.Params.ShardCount > 0 {
		params.ShardCount = body.Params.ShardCount
	}
	params.AllowSplit = body.Params.AllowSplit
	if body.Params.MaxTilesPerDomain > 0 {
		params.MaxTilesPerDomain = body.Params.MaxTilesPerDomain
	}
	params.BudgetUnits = body.Params.BudgetUnits
	params.GlobalSeed = body.Params.GlobalSeed

	inputs := make([]shard.Input, 0, len(body.Inputs))
	for _, ref := range body.Inputs {
		v, ok := s.reg.volume(ref.DomainID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain", "domainId": ref.DomainID})
			return
		}
		inputs = append(inputs, shard.Input{DomainID: ref.DomainID, Volume: v, Flags: ref.Flags})
	}

	idx := shard.NewIndex(0)
	if err := shard.Map(inputs, params, idx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignments": idx.Assignments,
		"overflow":    idx.Overflow,
		"uncertain":   idx.Uncertain,
	})
}

func (s *server) handleInstitutionRegion(c *gin.Context) {
	domainID, err := strconv.ParseUint(c.Param("domain"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain id"})
		return
	}
	regionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid region id"})
		return
	}
	d, ok := s.reg.institutionDomain(domainID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return
	}
	budget := volume.NewBudget(s.budgetUnits)
	c.JSON(http.StatusOK, d.RegionQuery(uint32(regionID), budget))
}

func (s *server) handleStandardRegion(c *gin.Context) {
	domainID, err := strconv.ParseUint(c.Param("domain"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain id"})
		return
	}
	regionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid region id"})
		return
	}
	d, ok := s.reg.standardDomain(domainID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return
	}
	budget := volume.NewBudget(s.budgetUnits)
	c.JSON(http.StatusOK, d.RegionQuery(uint32(regionID), budget))
}

func marshalHints(hints []volume.StreamingHint) ([]byte, error) {
	return json.Marshal(gin.H{"type": "stream_hints", "hints": hints})
}
