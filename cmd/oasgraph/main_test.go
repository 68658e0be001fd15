package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasgraph/oaserrors"
)

const petstore = "../../normalizer/testdata/petstore/openapi.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectText(t *testing.T) {
	out, err := execute(t, "inspect", petstore)
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 2")
	assert.Contains(t, out, "Services (2):")
	assert.Contains(t, out, "  pets\n")
	assert.Contains(t, out, "GET     /pets\n")
	assert.Contains(t, out, "Schemas (14):")
	assert.NotContains(t, out, "Warnings")
}

func TestInspectYAML(t *testing.T) {
	out, err := execute(t, "inspect", "--format", "yaml", "--default-service", "misc", petstore)
	require.NoError(t, err)

	var s summary
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	require.Len(t, s.Services, 2)
	assert.Equal(t, "pets", s.Services[0].Name)
	assert.Equal(t, "misc", s.Services[1].Name)
	assert.Contains(t, s.Services[0].Endpoints, "POST /pets")
	assert.Len(t, s.Schemas, 14)
	assert.Len(t, s.Documents, 2)
}

func TestInspectNoFlatten(t *testing.T) {
	out, err := execute(t, "inspect", "--format", "yaml", "--no-flatten", petstore)
	require.NoError(t, err)

	var s summary
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	var kind string
	for _, schema := range s.Schemas {
		if schema.Name == "Pet" {
			kind = schema.Kind
		}
	}
	assert.Equal(t, "combined", kind)
}

func TestInspectErrors(t *testing.T) {
	_, err := execute(t, "inspect")
	require.Error(t, err)

	_, err = execute(t, "inspect", "--format", "xml", petstore)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	_, err = execute(t, "inspect", "does-not-exist.yaml")
	assert.ErrorIs(t, err, oaserrors.ErrLoad)

	_, err = execute(t, "inspect", "--concurrency", "-2", petstore)
	assert.ErrorIs(t, err, oaserrors.ErrConfig)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: ")
	assert.Contains(t, out, "Go Version: ")
}
