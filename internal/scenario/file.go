package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileMix is the on-disk shape of a custom mix.
type fileMix struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Wait        fileWait `yaml:"wait" json:"wait"`
	Tasks       []Task   `yaml:"tasks" json:"tasks"`
}

type fileWait struct {
	Min string `yaml:"min" json:"min"`
	Max string `yaml:"max" json:"max"`
}

// LoadFile reads a custom mix from a YAML or JSON file. Missing wait bounds
// default to the 1s-5s range the built-in profiles use.
func LoadFile(path string) (Mix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mix{}, fmt.Errorf("failed to read mix file: %w", err)
	}

	var fm fileMix
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &fm)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fm)
	default:
		return Mix{}, fmt.Errorf("unsupported mix file extension: %s", filepath.Ext(path))
	}
	if err != nil {
		return Mix{}, fmt.Errorf("failed to parse mix file: %w", err)
	}

	min, err := parseWait(fm.Wait.Min, time.Second)
	if err != nil {
		return Mix{}, err
	}
	max, err := parseWait(fm.Wait.Max, 5*time.Second)
	if err != nil {
		return Mix{}, err
	}

	m := Mix{
		Name:        fm.Name,
		Description: fm.Description,
		Tasks:       fm.Tasks,
		Pacing:      Between(min, max),
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i := range m.Tasks {
		if m.Tasks[i].Name == "" {
			m.Tasks[i].Name = strings.TrimPrefix(m.Tasks[i].Path, "/")
		}
	}
	if err := m.Validate(); err != nil {
		return Mix{}, err
	}
	return m, nil
}

func parseWait(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid wait %q: %w", s, err)
	}
	return d, nil
}
