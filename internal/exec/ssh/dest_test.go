package ssh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsMissingHost(t *testing.T) {
	d := Dest{User: "deploy", AuthMethod: AuthMethodAgent}
	assert.Error(t, d.Validate())
}

func TestValidateRejectsPasswordAuthWithoutPassword(t *testing.T) {
	d := Dest{Host: "db1", User: "deploy", AuthMethod: AuthMethodPassword}
	assert.Error(t, d.Validate())
}

func TestValidateRejectsKeyAuthWithoutPath(t *testing.T) {
	d := Dest{Host: "db1", User: "deploy", AuthMethod: AuthMethodKey}
	assert.Error(t, d.Validate())
}

func TestValidateAcceptsAgentAuth(t *testing.T) {
	d := Dest{Host: "db1", User: "deploy", AuthMethod: AuthMethodAgent}
	assert.NoError(t, d.Validate())
}

func TestAddressDefaultsPort(t *testing.T) {
	d := Dest{Host: "db1.example.com"}
	assert.Equal(t, "db1.example.com:22", d.Address())
}

func TestAddressHonorsExplicitPort(t *testing.T) {
	d := Dest{Host: "db1.example.com", Port: 2222}
	assert.Equal(t, "db1.example.com:2222", d.Address())
}
