// Package playbook runs declarative YAML edit sequences against a document
// and checks the resulting history.
//
// A playbook is a list of steps. Each step is a single operation:
//
//	name: replace a line
//	steps:
//	  - begin: draw
//	  - insert: {kind: line, attrs: {x: 1}, as: a}
//	  - commit
//	  - update: {ref: a, path: x, value: 5, as: b}
//	  - undo
//	  - expect: {undo: 1, redo: 1, visible: 1, attrs: {a: {x: 1}}}
//
// Bare scalars are accepted for commit, cancel, undo and redo. Undo and redo
// take an optional count and stop quietly at the history boundary.
package playbook

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpBegin  = "begin"
	OpCommit = "commit"
	OpCancel = "cancel"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	OpUndo   = "undo"
	OpRedo   = "redo"
	OpExpect = "expect"
)

// ErrInvalidStep indicates a step that does not decode to one operation.
var ErrInvalidStep = errors.New("invalid step")

// Playbook is a named list of steps.
type Playbook struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one operation. Only the fields of Op are set.
type Step struct {
	Op   string
	Line int

	Label  string
	Count  int
	Ref    string
	Insert *InsertArgs
	Update *UpdateArgs
	Expect *Expect
}

// InsertArgs creates an entity and optionally names it.
type InsertArgs struct {
	Kind  string         `yaml:"kind"`
	Attrs map[string]any `yaml:"attrs"`
	As    string         `yaml:"as"`
}

// UpdateArgs replaces an entity with a copy carrying a new value.
type UpdateArgs struct {
	Ref   string `yaml:"ref"`
	Path  string `yaml:"path"`
	Value any    `yaml:"value"`
	As    string `yaml:"as"`
}

// Expect asserts the document and history state. Unset fields are not checked.
type Expect struct {
	Undo    *int `yaml:"undo"`
	Redo    *int `yaml:"redo"`
	Visible *int `yaml:"visible"`
	Total   *int `yaml:"total"`

	// Attrs maps a ref to attribute paths and their expected values.
	Attrs map[string]map[string]any `yaml:"attrs"`

	// Hidden lists refs that must not be visible.
	Hidden []string `yaml:"hidden"`

	// Disposed lists refs that must have been discarded by the history.
	Disposed []string `yaml:"disposed"`
}

// UnmarshalYAML decodes either a bare operation name or a single-key mapping.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	s.Line = node.Line

	switch node.Kind {
	case yaml.ScalarNode:
		s.Op = node.Value
		switch s.Op {
		case OpCommit, OpCancel:
		case OpUndo, OpRedo:
			s.Count = 1
		case OpBegin:
		default:
			return fmt.Errorf("line %d: %w: %q needs arguments", node.Line, ErrInvalidStep, s.Op)
		}
		return nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: %w: want exactly one operation", node.Line, ErrInvalidStep)
		}
		s.Op = node.Content[0].Value
		return s.decodeArgs(node.Content[1])
	}
	return fmt.Errorf("line %d: %w", node.Line, ErrInvalidStep)
}

func (s *Step) decodeArgs(v *yaml.Node) error {
	var err error
	switch s.Op {
	case OpBegin:
		err = v.Decode(&s.Label)
	case OpCommit, OpCancel:
	case OpUndo, OpRedo:
		s.Count = 1
		if v.Tag != "!!null" {
			err = v.Decode(&s.Count)
		}
	case OpDelete:
		err = v.Decode(&s.Ref)
	case OpInsert:
		s.Insert = &InsertArgs{}
		err = v.Decode(s.Insert)
		if err == nil && s.Insert.Kind == "" {
			err = errors.New("insert needs a kind")
		}
	case OpUpdate:
		s.Update = &UpdateArgs{}
		err = v.Decode(s.Update)
		if err == nil && (s.Update.Ref == "" || s.Update.Path == "") {
			err = errors.New("update needs ref and path")
		}
	case OpExpect:
		s.Expect = &Expect{}
		err = v.Decode(s.Expect)
	default:
		return fmt.Errorf("line %d: %w: unknown operation %q", v.Line, ErrInvalidStep, s.Op)
	}
	if err != nil {
		return fmt.Errorf("line %d: %w: %s: %v", v.Line, ErrInvalidStep, s.Op, err)
	}
	return nil
}

// Parse decodes a playbook.
func Parse(data []byte) (*Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, err
	}
	if len(pb.Steps) == 0 {
		return nil, fmt.Errorf("%w: playbook has no steps", ErrInvalidStep)
	}
	return &pb, nil
}

// Load reads and decodes the playbook at path.
func Load(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if pb.Name == "" {
		pb.Name = path
	}
	return pb, nil
}
