package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidecast/internal/artifact"
	"slidecast/internal/domain"
)

func TestScenesCommandPrintsSeededTable(t *testing.T) {
	cmd := newScenesCommand(&commandContext{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--topic", "Test Topic"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Test Topic")
	assert.Contains(t, out.String(), "Runtime: 36s across 6 scenes")
}

func TestBuildPublishFormReadsEnvironment(t *testing.T) {
	t.Setenv(envClientID, "id")
	t.Setenv(envClientSecret, "secret")
	t.Setenv(envRefreshToken, "token")

	form, err := buildPublishForm(publishOptions{title: "T", description: "D", tags: " a, ,b "}, "unlisted")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, form.Tags)
	assert.Equal(t, domain.PrivacyUnlisted, form.Privacy)
	assert.Equal(t, domain.Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}, form.Credentials)

	_, err = buildPublishForm(publishOptions{privacy: "friends"}, "private")
	assert.ErrorIs(t, err, domain.ErrInvalidPrivacy)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("YOUTUBE_CLIENT_ID=from-file\n"), 0o600))
	t.Setenv(envClientID, "")
	os.Unsetenv(envClientID)

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv(envClientID))
}

func TestCopyArtifactWritesAtomically(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")
	n, err := copyArtifact(artifact.Bytes("mp4 data"), dest)
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "mp4 data", string(data))
}

func TestPrintPublishResult(t *testing.T) {
	var out bytes.Buffer
	printPublishResult(&out, &domain.PublishResult{
		Success:   true,
		Message:   "Video uploaded successfully.",
		Title:     "Launch",
		Privacy:   domain.PrivacyPrivate,
		RemoteURL: "https://www.youtube.com/watch?v=abc123",
	})
	assert.Contains(t, out.String(), "published")
	assert.Contains(t, out.String(), "watch?v=abc123")

	out.Reset()
	printPublishResult(&out, nil)
	assert.Empty(t, out.String())
}
