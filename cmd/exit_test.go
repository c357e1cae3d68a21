package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/terminwatch/internal/probe"
)

func TestExitCodeFor(t *testing.T) {
	envFailure := probe.Classification{
		Outcome:    probe.IndeterminateError,
		Diagnostic: &probe.Diagnostic{Kind: probe.KindEnvironment},
	}
	timeout := probe.Classification{
		Outcome:    probe.IndeterminateError,
		Diagnostic: &probe.Diagnostic{Kind: probe.KindNavigationTimeout},
	}

	tests := []struct {
		name    string
		c       probe.Classification
		envCode int
		want    int
	}{
		{"AppointmentFound", probe.Classification{Outcome: probe.AppointmentFound}, 0, 1},
		{"NoAppointment", probe.Classification{Outcome: probe.NoAppointment}, 0, 0},
		{"Indeterminate", timeout, 0, 0},
		{"IndeterminateIgnoresEnvCode", timeout, 3, 0},
		{"EnvironmentDefault", envFailure, 0, 0},
		{"EnvironmentDistinguishable", envFailure, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.c, tt.envCode))
		})
	}
}

func TestExitCodeError(t *testing.T) {
	cause := errors.New("bad flag")
	err := &ExitCodeError{Code: ExitUsage, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad flag", err.Error())
	assert.Equal(t, "exit status 1", (&ExitCodeError{Code: ExitFound}).Error())

	assert.NoError(t, resultError(ExitOK))
	var exitErr *ExitCodeError
	assert.True(t, errors.As(resultError(ExitFound), &exitErr))
	assert.Equal(t, ExitFound, exitErr.Code)
}
