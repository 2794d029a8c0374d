package fault

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("route failed: %w", New("login", KindAuth, errors.New("bad password")))

	assert.Equal(t, KindAuth, KindOf(err))
	assert.Equal(t, "la cámara rechazó el inicio de sesión", Describe(err))
	assert.Contains(t, err.Error(), "login: auth failure: bad password")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestLaunchMissingBinary(t *testing.T) {
	err := exec.Command("reocamara-definitely-not-installed").Run()

	fe := Launch("record", err)
	assert.Equal(t, KindToolMissing, fe.Kind)
	assert.Equal(t, "ffmpeg no está instalado", Describe(fe))
}

func TestLaunchOtherError(t *testing.T) {
	fe := Launch("record", errors.New("exit status 1"))
	assert.Equal(t, KindProcess, fe.Kind)
}

func TestTransport(t *testing.T) {
	assert.Equal(t, KindNetwork, Transport("move", errors.New("connection refused")).Kind)
	assert.Equal(t, KindUnknown, Transport("move", context.Canceled).Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "tool_missing", KindToolMissing.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
