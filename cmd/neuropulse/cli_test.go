package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, db string, args ...string) (*app, string, error) {
	t.Helper()
	a := &app{}
	cmd := a.rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	a.close()
	return a, out.String(), err
}

func runCLI(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	_, out, err := execute(t, db, args...)
	return out, err
}

func TestDatabaseClosedAfterFailedCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "np.db")

	a, _, err := execute(t, db, "claim", "small")
	require.Error(t, err)
	require.NotNil(t, a.backend)
	_, err = a.backend.Get(context.Background(), "default")
	assert.Error(t, err)
}

func TestAddListAndStats(t *testing.T) {
	db := filepath.Join(t.TempDir(), "np.db")

	out, err := runCLI(t, db, "add", "Doom", "scrolling", "-s", "7", "-c", "lover", "--redirected", "-r", "Called a friend")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 today")

	out, err = runCLI(t, db, "add", "Snack", "-c", "zdobywca")
	require.NoError(t, err)
	assert.Contains(t, out, "#2 today")

	out, err = runCLI(t, db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Doom scrolling")
	assert.Contains(t, out, "Achiever")

	out, err = runCLI(t, db, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Success rate:  50%")
	assert.Contains(t, out, "Counter:       1")
}

func TestAddRejectsBadInput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "np.db")

	_, err := runCLI(t, db, "add", "Thing", "-s", "0")
	assert.Error(t, err)
	_, err = runCLI(t, db, "add", "Thing", "-c", "pirate")
	assert.Error(t, err)

	out, err := runCLI(t, db, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Impulses:      0")
}

func TestClaimFlow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "np.db")

	_, err := runCLI(t, db, "thresholds", "--small", "2")
	require.NoError(t, err)

	_, err = runCLI(t, db, "claim", "small")
	assert.Error(t, err)

	for i := 0; i < 3; i++ {
		_, err := runCLI(t, db, "add", "Urge", "--redirected")
		require.NoError(t, err)
	}

	out, err := runCLI(t, db, "rewards")
	require.NoError(t, err)
	assert.Contains(t, out, "100%")

	out, err = runCLI(t, db, "claim", "small")
	require.NoError(t, err)
	assert.Contains(t, out, "Counter is now 1")

	_, err = runCLI(t, db, "claim", "gigantic")
	assert.Error(t, err)
}

func TestThresholdsValidation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "np.db")

	out, err := runCLI(t, db, "thresholds")
	require.NoError(t, err)
	assert.Contains(t, out, "small      5")

	_, err = runCLI(t, db, "thresholds", "--medium", "0")
	assert.Error(t, err)
}

func TestCompleteAndCategory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "np.db")

	out, err := runCLI(t, db, "add", "Urge")
	require.NoError(t, err)
	id := strings.Fields(out)[1]

	out, err = runCLI(t, db, "complete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "completed: yes")

	_, err = runCLI(t, db, "complete", "nope")
	assert.Error(t, err)

	out, err = runCLI(t, db, "category", "Kochanek")
	require.NoError(t, err)
	assert.Contains(t, out, "Lover")
}

func TestSuggestionsCmd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "np.db")

	out, err := runCLI(t, db, "suggestions", "-c", "achiever", "plank")
	require.NoError(t, err)
	assert.Contains(t, out, "[Achiever]")
	assert.NotContains(t, out, "[Lover]")
}
