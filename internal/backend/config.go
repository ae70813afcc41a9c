package backend

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the backend client configuration carried by the generated
// runtime artifact. How the artifact is produced is a build concern.
type Config struct {
	ProjectID        string          `json:"projectId"`
	DatabaseURL      string          `json:"databaseURL"`
	StorageBucket    string          `json:"storageBucket"`
	ServiceAccountID string          `json:"serviceAccountId"`
	CredentialsFile  string          `json:"credentialsFile"`
	CredentialsJSON  json.RawMessage `json:"credentialsJSON"`
}

// artifact mirrors the generated file layout: the config object sits
// under a "result" key.
type artifact struct {
	Result Config `json:"result"`
}

// LoadConfigArtifact reads the generated runtime artifact at path.
func LoadConfigArtifact(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Config{}, fmt.Errorf("failed to parse config artifact: %w", err)
	}
	if a.Result.ProjectID == "" {
		return Config{}, fmt.Errorf("config artifact has no projectId")
	}
	return a.Result, nil
}
