package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opereon/opereon/internal/model"
	"github.com/opereon/opereon/internal/model/template"
)

func sampleManifest() *model.Manifest {
	return &model.Manifest{
		Hosts: map[string]model.Host{
			"db1": {Hostname: "db1.internal", SSHDest: "db1"},
		},
		Procs: map[string]model.Proc{},
	}
}

func TestRenderSubstitutesData(t *testing.T) {
	out, err := template.Render("hello {{ .Name }}", sampleManifest(), map[string]interface{}{"Name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestRenderExposesStarFunction(t *testing.T) {
	out, err := template.Render(`host is {{ star "hosts['db1']['hostname']" }}`, sampleManifest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "host is db1.internal", out)
}

func TestRenderRejectsMalformedTemplate(t *testing.T) {
	_, err := template.Render("{{ .Unclosed", sampleManifest(), nil)
	assert.Error(t, err)
}
