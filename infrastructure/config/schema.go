package config

import (
	"encoding/json"
	"fmt"

	domainconfig "github.com/felixgeelhaar/shrdlu/domain/config"
	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AdditionalProperties *JSONSchema            `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	OneOf                []*JSONSchema          `json:"oneOf,omitempty"`
}

// Schema kinds accepted by SchemaJSON.
const (
	SchemaConfig  = "config"
	SchemaProblem = "problem"
)

const (
	schemaDraft    = "https://json-schema.org/draft/2020-12/schema"
	schemaBase     = "https://github.com/felixgeelhaar/shrdlu/"
	durationFormat = `^(\d+(\.\d+)?(ns|us|µs|ms|s|m|h))+$`
)

// GenerateSchema generates a JSON Schema for PlannerConfig.
func GenerateSchema() *JSONSchema {
	def := domainconfig.DefaultConfig()
	return &JSONSchema{
		Schema:      schemaDraft,
		ID:          schemaBase + "planner-config.schema.json",
		Title:       "Planner Configuration",
		Description: "Configuration of the shrdlu planner",
		Type:        "object",
		Required:    []string{"name", "version"},
		Properties: map[string]*JSONSchema{
			"name":        {Type: "string", Description: "Human-readable configuration name"},
			"version":     {Type: "string", Description: "Configuration schema version", Default: def.Version},
			"description": {Type: "string"},
			"search": object("Search settings", map[string]*JSONSchema{
				"timeout":         duration("Wall-clock limit of one search; 0 disables it", def.Search.Timeout),
				"heuristic":       enum("Heuristic mode", def.Search.Heuristic, domainconfig.HeuristicDomain, domainconfig.HeuristicZero),
				"combiner":        enum("How literal estimates combine", def.Search.Combiner, domainconfig.CombinerSum, domainconfig.CombinerMax),
				"physics_pruning": {Type: "boolean", Description: "Drop conjunctions that violate physical rules before searching"},
				"commentary":      {Type: "boolean", Description: "Attach a sentence to every action", Default: def.Search.Commentary},
			}),
			"cache": object("Plan cache", map[string]*JSONSchema{
				"backend": enum("Cache backend", def.Cache.Backend,
					domainconfig.BackendNone, domainconfig.BackendMemory, domainconfig.BackendBadger, domainconfig.BackendRedis, domainconfig.BackendSQLite),
				"ttl":         duration("Entry lifetime; 0 keeps entries", 0),
				"max_entries": {Type: "integer", Description: "Capacity of the memory backend", Minimum: floatPtr(0)},
				"dir":         {Type: "string", Description: "Badger data directory"},
				"path":        {Type: "string", Description: "SQLite database file"},
				"address":     {Type: "string", Description: "Redis address (host:port)"},
				"password":    {Type: "string"},
				"db":          {Type: "integer", Minimum: floatPtr(0)},
				"key_prefix":  {Type: "string"},
			}),
			"history": object("Plan history", map[string]*JSONSchema{
				"backend": enum("History backend", def.History.Backend,
					domainconfig.BackendNone, domainconfig.BackendMemory, domainconfig.BackendSQLite),
				"path": {Type: "string", Description: "SQLite database file"},
			}),
			"logging": object("Structured logging", map[string]*JSONSchema{
				"level":  enum("Minimum level", def.Logging.Level, "trace", "debug", "info", "warn", "error"),
				"format": enum("Output format", def.Logging.Format, "console", "json"),
			}),
			"telemetry": object("Tracing and metrics", map[string]*JSONSchema{
				"tracing": enum("Trace exporter", def.Telemetry.Tracing,
					domainconfig.TracingNone, domainconfig.TracingStdout, domainconfig.TracingOTLP),
				"endpoint":     {Type: "string", Description: "OTLP gRPC endpoint"},
				"insecure":     {Type: "boolean"},
				"service_name": {Type: "string", Default: def.Telemetry.ServiceName},
				"metrics":      {Type: "boolean", Description: "Record OpenTelemetry metrics"},
			}),
			"batch": object("Batch planning", map[string]*JSONSchema{
				"max_concurrent": {Type: "integer", Minimum: floatPtr(0), Default: def.Batch.MaxConcurrent},
				"attempts":       {Type: "integer", Minimum: floatPtr(0), Default: def.Batch.Attempts},
				"timeout_growth": {Type: "number", Minimum: floatPtr(1), Default: def.Batch.TimeoutGrowth},
			}),
		},
	}
}

// GenerateProblemSchema generates a JSON Schema for Problem.
func GenerateProblemSchema() *JSONSchema {
	forms := make([]string, 0, len(world.AllForms()))
	for _, f := range world.AllForms() {
		forms = append(forms, string(f))
	}
	relations := make([]string, 0, len(goal.AllRelations()))
	for _, r := range goal.AllRelations() {
		relations = append(relations, string(r))
	}
	ids := &JSONSchema{Type: "array", Items: &JSONSchema{Type: "string"}}

	return &JSONSchema{
		Schema:      schemaDraft,
		ID:          schemaBase + "problem.schema.json",
		Title:       "Planning Problem",
		Description: "A start world and a goal formula",
		Type:        "object",
		Required:    []string{"world"},
		Properties: map[string]*JSONSchema{
			"name": {Type: "string"},
			"world": {
				Type:     "object",
				Required: []string{"stacks", "objects"},
				Properties: map[string]*JSONSchema{
					"arm":     {Type: "integer", Minimum: floatPtr(0), Description: "Arm column"},
					"holding": {Type: "string", Description: "Held object ID"},
					"stacks":  {Type: "array", Description: "Columns, each listed bottom to top", Items: ids},
					"objects": {
						Type: "object",
						AdditionalProperties: &JSONSchema{
							Type:     "object",
							Required: []string{"form", "size"},
							Properties: map[string]*JSONSchema{
								"form":  {Type: "string", Enum: forms},
								"size":  {Type: "string", Enum: []string{string(world.SizeSmall), string(world.SizeLarge)}},
								"color": {Type: "string"},
							},
						},
					},
				},
			},
			"goal": {
				Type:        "string",
				Description: "Goal text such as \"inside(a, b) and not holding(c)\"",
			},
			"dnf": {
				Type:        "array",
				Description: "Disjunction of conjunctions of literals",
				Items: &JSONSchema{
					Type: "array",
					Items: &JSONSchema{
						Type:     "object",
						Required: []string{"relation", "args"},
						Properties: map[string]*JSONSchema{
							"relation": {Type: "string", Enum: relations},
							"args":     ids,
							"negated":  {Type: "boolean"},
						},
					},
				},
			},
		},
		OneOf: []*JSONSchema{{Required: []string{"goal"}}, {Required: []string{"dnf"}}},
	}
}

// SchemaJSON returns the named schema as indented JSON.
func SchemaJSON(kind string) (string, error) {
	var schema *JSONSchema
	switch kind {
	case SchemaConfig:
		schema = GenerateSchema()
	case SchemaProblem:
		schema = GenerateProblemSchema()
	default:
		return "", fmt.Errorf("unknown schema %q (want %s or %s)", kind, SchemaConfig, SchemaProblem)
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func object(desc string, props map[string]*JSONSchema) *JSONSchema {
	return &JSONSchema{Type: "object", Description: desc, Properties: props}
}

func enum(desc, def string, values ...string) *JSONSchema {
	s := &JSONSchema{Type: "string", Description: desc, Enum: values}
	if def != "" {
		s.Default = def
	}
	return s
}

func duration(desc string, def domainconfig.Duration) *JSONSchema {
	s := &JSONSchema{Type: "string", Description: desc, Pattern: durationFormat}
	if def != 0 {
		s.Default = def.Duration().String()
	}
	return s
}

func floatPtr(f float64) *float64 {
	return &f
}
