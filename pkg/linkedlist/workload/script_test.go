package workload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	data := []byte(`
name: demo
allocator:
  allocator: pool
  pool_capacity: 4
retry:
  max_attempts: 2
steps:
  - op: create_list
    list: a
  - op: insert_end
    list: a
    values: [1, 2]
  - op: size
    list: a
    expect: 2
  - op: remove_at
    list: a
    index: 5
    fail: out_of_bounds
    retry: true
`)
	s, err := ParseScript(data)
	require.NoError(t, err)

	assert.Equal(t, "demo", s.Name)
	assert.Equal(t, "pool", s.Allocator["allocator"])
	assert.Equal(t, 2, s.Retry["max_attempts"])
	require.Len(t, s.Steps, 4)
	assert.Equal(t, []uint32{1, 2}, s.Steps[1].Values)
	require.NotNil(t, s.Steps[2].Expect)
	assert.Equal(t, uint64(2), *s.Steps[2].Expect)
	assert.Equal(t, uint(5), s.Steps[3].Index)
	assert.Equal(t, "out_of_bounds", s.Steps[3].Fail)
	assert.True(t, s.Steps[3].Retry)
}

func TestParseScript_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown op", `steps: [{op: sort, list: a}]`, ErrUnknownOp},
		{"missing list", `steps: [{op: size}]`, ErrInvalidScript},
		{"missing iterator", `steps: [{op: advance}]`, ErrInvalidScript},
		{"expect without result", `steps: [{op: insert_end, list: a, expect: 1}]`, ErrInvalidScript},
		{"expect and fail", `steps: [{op: size, list: a, expect: 1, fail: nil_handle}]`, ErrInvalidScript},
		{"unknown category", `steps: [{op: size, list: a, fail: oops}]`, ErrInvalidScript},
		{"values on insert_at", `steps: [{op: insert_at, list: a, values: [1]}]`, ErrInvalidScript},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, 0, stepErr.Step)
		})
	}
}

func TestParseScript_BadYAML(t *testing.T) {
	_, err := ParseScript([]byte("steps: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse script")
}

func TestLoadScript(t *testing.T) {
	s, err := LoadScript(filepath.Join("testdata", "insertion.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "insertion", s.Name)
	assert.NotEmpty(t, s.Steps)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScriptValidate_Nil(t *testing.T) {
	var s *Script
	assert.ErrorIs(t, s.Validate(), ErrInvalidScript)
}

func TestStepError(t *testing.T) {
	err := &StepError{Step: 2, Op: "size", Err: ErrUnexpectedResult}
	assert.Equal(t, "step 2 (size): unexpected result", err.Error())
	assert.ErrorIs(t, err, ErrUnexpectedResult)
}
