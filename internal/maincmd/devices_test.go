package maincmd_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/internal/maincmd"
)

func TestDevicesListsRegisteredBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &maincmd.Cmd{}
	err := c.Devices(context.Background(), mainer.Stdio{Stdout: &out, Stderr: &errOut}, nil)
	require.NoError(t, err)
	require.Contains(t, out.String(), "file")
	require.Contains(t, out.String(), "mem")
}
