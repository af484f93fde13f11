// Package config loads and validates the CPN monitor's configuration
// document (spec §6.1): places, transitions, event_mapping and
// initial_marking, producing a *netmodel.Net and the event kind ->
// transition name mapping the dispatcher needs. Validation happens in
// two passes, mirroring the teacher's CPNParser + JsonSchemaDef flow:
// a jsonschema/v5 schema pass over the raw document, then a
// referential pass over the parsed structure for checks a schema
// can't express (undefined transitions, unbound variables).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"go-cpn-monitor/internal/color"
	"go-cpn-monitor/internal/netmodel"
)

// Invalid wraps every validation failure this package reports, at
// either the schema or the referential pass (spec §6.1's
// "ConfigInvalid"). Its cause chain is preserved via pkg/errors so
// callers can inspect the underlying reason.
type Invalid struct {
	cause error
}

func (e *Invalid) Error() string { return "ConfigInvalid: " + e.cause.Error() }
func (e *Invalid) Unwrap() error { return e.cause }

func invalid(cause error) *Invalid { return &Invalid{cause: cause} }

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("cpn monitor: embedded config schema failed to load: %v", err))
	}
	schema, err := compiler.Compile("config.json")
	if err != nil {
		panic(fmt.Sprintf("cpn monitor: embedded config schema failed to compile: %v", err))
	}
	return schema
}

// tokenLiteral is the [Kind, Value] 2-tuple format spec §6.1 uses for
// initial_marking token literals.
type tokenLiteral struct {
	Kind  string
	Value uint64
}

func (t *tokenLiteral) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "token literal must be a 2-element array")
	}
	if len(raw) != 2 {
		return errors.Errorf("token literal must have exactly 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Kind); err != nil {
		return errors.Wrap(err, "token kind must be a string")
	}
	if err := json.Unmarshal(raw[1], &t.Value); err != nil {
		return errors.Wrap(err, "token value must be a non-negative integer")
	}
	return nil
}

// arcJSON is one arc object: {"place","variable"} or
// {"place","kind","value"}, exactly one pattern present (spec §6.1).
type arcJSON struct {
	Place    string  `json:"place"`
	Variable string  `json:"variable,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	Value    *uint64 `json:"value,omitempty"`
}

func (a arcJSON) isVariable() bool { return a.Variable != "" }
func (a arcJSON) isConcrete() bool { return a.Kind != "" || a.Value != nil }

type transitionJSON struct {
	Pre  []arcJSON `json:"pre"`
	Post []arcJSON `json:"post"`
}

type docJSON struct {
	Places         []string                  `json:"places,omitempty"`
	Transitions    map[string]transitionJSON `json:"transitions"`
	EventMapping   map[string]string         `json:"event_mapping"`
	InitialMarking map[string][]tokenLiteral `json:"initial_marking,omitempty"`
}

// Config is the loaded, validated result: a net ready to drive
// internal/monitor, and the event_mapping it was built from.
type Config struct {
	Net          *netmodel.Net
	EventMapping map[string]string
}

// LoadFile reads and validates the configuration document at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, invalid(errors.Wrapf(err, "reading config file %q", path))
	}
	return Load(data)
}

// Load validates and parses a configuration document from data.
func Load(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, invalid(err)
	}

	var doc docJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalid(errors.Wrap(err, "decoding config document"))
	}

	if err := validateReferential(&doc); err != nil {
		return nil, invalid(err)
	}

	return build(&doc), nil
}

func validateSchema(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "config document is not valid JSON")
	}
	if err := compiledSchema.Validate(v); err != nil {
		return errors.Wrap(err, "config document failed schema validation")
	}
	return nil
}

func build(doc *docJSON) *Config {
	net := netmodel.NewNet()
	net.DeclaredPlaces = append([]string(nil), doc.Places...)

	for _, name := range sortedTransitionNames(doc.Transitions) {
		tj := doc.Transitions[name]
		net.AddTransition(netmodel.NewTransition(name, buildArcs(tj.Pre), buildArcs(tj.Post)))
	}

	for place, literals := range doc.InitialMarking {
		toks := make([]color.Token, len(literals))
		for i, lit := range literals {
			toks[i] = color.New(lit.Kind, lit.Value)
		}
		net.InitialMarking[place] = toks
	}

	eventMapping := make(map[string]string, len(doc.EventMapping))
	for k, v := range doc.EventMapping {
		eventMapping[k] = v
	}

	return &Config{Net: net, EventMapping: eventMapping}
}

func buildArcs(arcs []arcJSON) []netmodel.Arc {
	out := make([]netmodel.Arc, len(arcs))
	for i, aj := range arcs {
		if aj.isVariable() {
			out[i] = netmodel.VarArc(aj.Place, aj.Variable)
		} else {
			out[i] = netmodel.ConcreteArc(aj.Place, color.New(aj.Kind, *aj.Value))
		}
	}
	return out
}

func sortedTransitionNames(transitions map[string]transitionJSON) []string {
	names := make([]string, 0, len(transitions))
	for name := range transitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
