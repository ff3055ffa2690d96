package workload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	llerrors "github.com/randalmurphal/linkedlist/pkg/linkedlist/errors"
)

// Operation names accepted in Step.Op.
const (
	OpCreateList     = "create_list"
	OpDeleteList     = "delete_list"
	OpSize           = "size"
	OpInsertEnd      = "insert_end"
	OpInsertFront    = "insert_front"
	OpInsertAt       = "insert_at"
	OpFind           = "find"
	OpRemoveAt       = "remove_at"
	OpValidate       = "validate"
	OpCreateIterator = "create_iterator"
	OpDeleteIterator = "delete_iterator"
	OpAdvance        = "advance"
	OpData           = "data"
	OpFailNextAlloc  = "fail_next_alloc"
)

// opSpec describes which handles an op needs and whether it yields a result.
type opSpec struct {
	list     bool
	iterator bool
	result   bool
}

var ops = map[string]opSpec{
	OpCreateList:     {list: true},
	OpDeleteList:     {list: true},
	OpSize:           {list: true, result: true},
	OpInsertEnd:      {list: true},
	OpInsertFront:    {list: true},
	OpInsertAt:       {list: true},
	OpFind:           {list: true, result: true},
	OpRemoveAt:       {list: true},
	OpValidate:       {list: true},
	OpCreateIterator: {list: true, iterator: true},
	OpDeleteIterator: {iterator: true},
	OpAdvance:        {iterator: true},
	OpData:           {iterator: true, result: true},
	OpFailNextAlloc:  {},
}

// Script is a named sequence of steps run against one allocator.
type Script struct {
	Name string `yaml:"name"`

	// Allocator configures the allocator through alloc.Profiles.FromConfig.
	// An empty map selects the system allocator.
	Allocator map[string]any `yaml:"allocator"`

	// Retry configures steps marked retry through errors.RetryFromConfig.
	// An empty map keeps the runner's retry configuration.
	Retry map[string]any `yaml:"retry"`

	Steps []Step `yaml:"steps"`
}

// Step is one operation of a script.
type Step struct {
	Op       string `yaml:"op"`
	List     string `yaml:"list,omitempty"`
	Iterator string `yaml:"iterator,omitempty"`
	Index    uint   `yaml:"index,omitempty"`

	// Value is the operand of insert and find steps.
	Value uint32 `yaml:"value,omitempty"`

	// Values makes insert_end and insert_front insert each value in turn.
	Values []uint32 `yaml:"values,omitempty"`

	// Expect is the required result of size, find and data steps.
	Expect *uint64 `yaml:"expect,omitempty"`

	// Fail is the error category the step must fail with, for example
	// "out_of_bounds" or "allocation".
	Fail string `yaml:"fail,omitempty"`

	// Retry wraps the step in the runner's retry configuration.
	Retry bool `yaml:"retry,omitempty"`
}

// LoadScript reads and parses a YAML script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step names a known op, carries the handles the
// op needs, and uses expect and fail only where they make sense.
func (s *Script) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil script", ErrInvalidScript)
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return &StepError{Step: i, Op: st.Op, Err: err}
		}
	}
	return nil
}

func (st Step) validate() error {
	spec, ok := ops[st.Op]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownOp, st.Op)
	}
	if spec.list && st.List == "" {
		return fmt.Errorf("%w: %s needs a list name", ErrInvalidScript, st.Op)
	}
	if spec.iterator && st.Iterator == "" {
		return fmt.Errorf("%w: %s needs an iterator name", ErrInvalidScript, st.Op)
	}
	if st.Expect != nil && !spec.result {
		return fmt.Errorf("%w: %s has no result to expect", ErrInvalidScript, st.Op)
	}
	if st.Expect != nil && st.Fail != "" {
		return fmt.Errorf("%w: expect and fail are exclusive", ErrInvalidScript)
	}
	if st.Fail != "" {
		if _, ok := llerrors.ParseCategory(st.Fail); !ok {
			return fmt.Errorf("%w: unknown failure category %q", ErrInvalidScript, st.Fail)
		}
	}
	if len(st.Values) > 0 && st.Op != OpInsertEnd && st.Op != OpInsertFront {
		return fmt.Errorf("%w: values only applies to insert_end and insert_front", ErrInvalidScript)
	}
	return nil
}
