package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute(context.Background())

	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tenantgate ")

	Version = "v1.2.3"
	t.Cleanup(func() { Version = "" })

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "tenantgate v1.2.3\n", out)
}

func TestPingDatabaseWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	out, err := execute(t, "ping-database")
	require.Error(t, err)
	assert.Equal(t, ExitError{Code: 1}, err)
	assert.Equal(t, "exit status 1", err.Error())
	assert.Contains(t, out, "DATABASE_URL")
}

func TestStartWithMissingConfig(t *testing.T) {
	_, err := execute(t, "start", "--config", t.TempDir()+"/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read main config file")
}
