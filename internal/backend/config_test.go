package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfigArtifact(t *testing.T) {
	path := writeArtifact(t, `{
		"result": {
			"projectId": "friendlypix",
			"databaseURL": "https://friendlypix.firebaseio.com",
			"storageBucket": "friendlypix.appspot.com"
		}
	}`)

	cfg, err := LoadConfigArtifact(path)

	require.NoError(t, err)
	assert.Equal(t, "friendlypix", cfg.ProjectID)
	assert.Equal(t, "https://friendlypix.firebaseio.com", cfg.DatabaseURL)
	assert.Equal(t, "friendlypix.appspot.com", cfg.StorageBucket)
}

func TestLoadConfigArtifactMissingFile(t *testing.T) {
	_, err := LoadConfigArtifact(filepath.Join(t.TempDir(), "nope.json"))

	assert.Error(t, err)
}

func TestLoadConfigArtifactInvalidJSON(t *testing.T) {
	path := writeArtifact(t, "{not json")

	_, err := LoadConfigArtifact(path)

	assert.ErrorContains(t, err, "parse")
}

func TestLoadConfigArtifactRequiresProjectID(t *testing.T) {
	path := writeArtifact(t, `{"result": {}}`)

	_, err := LoadConfigArtifact(path)

	assert.ErrorContains(t, err, "projectId")
}
