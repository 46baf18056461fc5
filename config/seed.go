package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedUser describes an account created at startup when absent
type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedUsers reads the optional seed users file.
// An empty path yields no users.
func LoadSeedUsers(path string) ([]SeedUser, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed users file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed users file: %w", err)
	}

	for i, u := range file.Users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: username and password are required", i)
		}
		if u.Role == "" {
			file.Users[i].Role = "employee"
		}
	}

	return file.Users, nil
}
