package plugin

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BlockingMode declares how a plugin's execution relates to acquisition.
type BlockingMode string

const (
	// BlockingNone is fire-and-forget: the request queue may grow and the
	// oldest unconsumed request is dropped past the queue bound.
	BlockingNone BlockingMode = "none"
	// BlockingPlugin serializes a plugin's own requests: at most one in
	// flight, new requests queue behind it. Acquisition never waits.
	BlockingPlugin BlockingMode = "plugin"
	// BlockingHost makes the acquisition path itself wait for the
	// response, bounded by a hard timeout.
	BlockingHost BlockingMode = "host"
)

// GraphType is a display hint for returned series.
type GraphType string

const (
	GraphLine GraphType = "line"
	GraphXY   GraphType = "xy"
)

// GraphTarget says which graph a plugin's series belong on and how they
// are drawn.
type GraphTarget struct {
	Secondary bool      `json:"secondary"`
	Type      GraphType `json:"type"`
}

// FieldType is the closed set of control datatypes a plugin can declare.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldBool   FieldType = "bool"
	FieldButton FieldType = "button"
	FieldTable  FieldType = "table"
)

// Direction says whether a field carries values into or out of the plugin.
type Direction string

const (
	DirInput  Direction = "input"
	DirOutput Direction = "output"
)

// Bounds constrains numeric input fields.
type Bounds struct {
	Min       float64
	Max       float64
	Step      float64
	Precision int // digits past the decimal point, float fields only
}

// FieldDescriptor declares one control exposed to the host. Name must be
// unique within a plugin; declaration order is presentation order.
type FieldDescriptor struct {
	Name      string    `validate:"required"`
	Type      FieldType `validate:"required,oneof=string int float bool button table"`
	Direction Direction `validate:"required,oneof=input output"`
	Initial   any
	Bounds    *Bounds  // int/float only
	Options   []string // string input only: combo-box choices
	Tooltip   string
	Callback  func() // button only
}

// DependencyExistingDirectory asks for a directory that already exists on
// the host filesystem.
const DependencyExistingDirectory = "existing_directory"

// Dependency is an external precondition the host resolves before Connect,
// e.g. an existing directory the plugin reads from. The resolved value is
// passed in the device snapshot's ResolvedValues.
type Dependency struct {
	Name    string `validate:"required"`
	Kind    string `validate:"required,oneof=existing_directory"`
	Persist bool   // remember the resolved value across sessions
	Prompt  string
}

// Configuration is a plugin's one-time declaration of fields, graph
// output, and execution semantics. Exactly one Configuration is committed
// per plugin instance; later Configure calls must return an equivalent one.
type Configuration struct {
	Name   string `validate:"required"`
	Fields []FieldDescriptor

	// SecondaryGraph asks the host for a dedicated graph instead of
	// overlaying the main one. Axis labels only apply there.
	SecondaryGraph bool
	XAxisLabel     string
	YAxisLabel     string
	GraphType      GraphType `validate:"omitempty,oneof=line xy"`

	// SeriesNames is the superset of keys the plugin may later return in
	// a response's Series map; undeclared keys are ignored by the merger.
	SeriesNames []string

	// Streaming plugins receive every acquired reading; non-streaming
	// plugins only receive explicitly triggered requests.
	Streaming bool

	Blocking    BlockingMode `validate:"omitempty,oneof=none plugin host"`
	MultiDevice bool

	Dependencies []Dependency

	// EventNames lists host triggers (e.g. "save") the plugin wants
	// delivered. Handlers run inline with the host's completion context
	// and must return promptly.
	EventNames []string
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural validity: required fields, closed enums,
// unique field and series names, and per-variant payload rules.
func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("configuration %q: %w", c.Name, err)
	}

	fieldNames := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if fieldNames[f.Name] {
			return fmt.Errorf("configuration %q: duplicate field name %q", c.Name, f.Name)
		}
		fieldNames[f.Name] = true

		switch f.Type {
		case FieldButton:
			if f.Callback == nil {
				return fmt.Errorf("configuration %q: field %q: button fields require a callback", c.Name, f.Name)
			}
			if f.Direction != DirInput {
				return fmt.Errorf("configuration %q: field %q: button fields must be inputs", c.Name, f.Name)
			}
		case FieldInt, FieldFloat:
			// Bounds are optional for numeric fields, forbidden elsewhere.
		default:
			if f.Bounds != nil {
				return fmt.Errorf("configuration %q: field %q: bounds only apply to int/float fields", c.Name, f.Name)
			}
		}
		if f.Callback != nil && f.Type != FieldButton {
			return fmt.Errorf("configuration %q: field %q: callback only applies to button fields", c.Name, f.Name)
		}
	}

	seen := make(map[string]bool, len(c.SeriesNames))
	for _, s := range c.SeriesNames {
		if s == "" {
			return fmt.Errorf("configuration %q: empty series name", c.Name)
		}
		if seen[s] {
			return fmt.Errorf("configuration %q: duplicate series name %q", c.Name, s)
		}
		seen[s] = true
	}

	return nil
}

// Graph returns the target the configuration designates for returned
// series. An unset graph type defaults to a line graph.
func (c *Configuration) Graph() GraphTarget {
	t := GraphTarget{Secondary: c.SecondaryGraph, Type: c.GraphType}
	if t.Type == "" {
		t.Type = GraphLine
	}
	return t
}

// DeclaresSeries reports whether name is in SeriesNames.
func (c *Configuration) DeclaresSeries(name string) bool {
	for _, s := range c.SeriesNames {
		if s == name {
			return true
		}
	}
	return false
}

// OutputFields returns the names of declared output fields, in
// presentation order.
func (c *Configuration) OutputFields() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Direction == DirOutput {
			out = append(out, f.Name)
		}
	}
	return out
}

// WantsEvent reports whether the plugin declared interest in a host
// trigger name.
func (c *Configuration) WantsEvent(name string) bool {
	for _, e := range c.EventNames {
		if e == name {
			return true
		}
	}
	return false
}
