package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		path []string
		use  string
	}{
		{[]string{"sweep"}, "sweep"},
		{[]string{"ensure-charge"}, "ensure-charge"},
		{[]string{"agreement", "build"}, "build"},
		{[]string{"tx", "approve"}, "approve <transaction-id>"},
		{[]string{"transaction", "reject"}, "reject <transaction-id>"},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			cmd, rest, err := root.Find(tt.path)
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.Equal(t, tt.use, cmd.Use)
		})
	}
}

func TestRequiredFlags(t *testing.T) {
	root := newRootCmd()

	charge, _, err := root.Find([]string{"ensure-charge"})
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, charge.Flags().Lookup("unit").Annotations["cobra_annotation_bash_completion_one_required_flag"])

	build, _, err := root.Find([]string{"agreement", "build"})
	require.NoError(t, err)
	for _, name := range []string{"resident", "periods", "start"} {
		assert.NotNil(t, build.Flags().Lookup(name).Annotations, name)
	}
	assert.Equal(t, "1", build.Flags().Lookup("installments").DefValue)
}

func TestReviewRequiresOneArgument(t *testing.T) {
	root := newRootCmd()
	approve, _, err := root.Find([]string{"tx", "approve"})
	require.NoError(t, err)

	assert.Error(t, approve.Args(approve, nil))
	assert.Error(t, approve.Args(approve, []string{"a", "b"}))
	assert.NoError(t, approve.Args(approve, []string{"5f0c4c9e-1b7a-4c36-9a55-0f3f7c1d2e10"}))
}

func TestHelpDoesNotOpenDatabase(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "ensure-charge")
	assert.Contains(t, out.String(), "sweep")
}

func TestParseOptionalID(t *testing.T) {
	id, err := parseOptionalID("unit", "")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = parseOptionalID("unit", "nope")
	assert.EqualError(t, err, "--unit must be a valid UUID")

	id, err = parseOptionalID("unit", "5f0c4c9e-1b7a-4c36-9a55-0f3f7c1d2e10")
	require.NoError(t, err)
	assert.Equal(t, "5f0c4c9e-1b7a-4c36-9a55-0f3f7c1d2e10", id.String())
}
