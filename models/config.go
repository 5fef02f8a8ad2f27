package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Store struct {
		Url      string `envconfig:"BGDB_URL"`
		Email    string `envconfig:"BGDB_EMAIL"`
		Password string `envconfig:"BGDB_PASSWORD"`
	}
	Debug bool `envconfig:"BGDB_DEBUG"`
}

// CredentialsFile mirrors the on-disk config file shape
// ({"lead_url": ..., "email": ..., "password": ...}).
type CredentialsFile struct {
	LeadUrl  string `json:"lead_url" yaml:"lead_url"`
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

// LoadCredentialsFile reads a JSON or YAML credentials file, picking
// the codec by file extension (anything that isn't .yaml/.yml is
// treated as JSON).
func LoadCredentialsFile(path string) (*CredentialsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	creds := &CredentialsFile{}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return creds, nil
}
