package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelfUpdateCmd(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()

	assert.Equal(t, "self-update", selfUpdateCmd.Use)
	assert.NotEmpty(t, selfUpdateCmd.Short)
	assert.NotEmpty(t, selfUpdateCmd.Long)
	assert.NotNil(t, selfUpdateCmd.RunE)
}

func TestRunSelfUpdate_DevelopmentVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	for _, version := range []string{"dev", ""} {
		rootCmd.Version = version
		err := runSelfUpdate(nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot self-update a development version")
	}
}

func TestSelfUpdateCommandHelp(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()
	var buf bytes.Buffer
	selfUpdateCmd.SetOut(&buf)
	selfUpdateCmd.SetErr(&buf)
	selfUpdateCmd.SetArgs([]string{"--help"})

	require.NoError(t, selfUpdateCmd.Execute())
	assert.Contains(t, buf.String(), "Checks for the latest release")
	assert.Contains(t, buf.String(), "self-update")
}

func TestGithubRepoSlug(t *testing.T) {
	assert.Equal(t, "jirenius/modapp", githubRepoSlug)
}
