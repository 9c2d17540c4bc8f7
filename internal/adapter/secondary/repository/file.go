package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	yaml "go.yaml.in/yaml/v3"

	"adhan-manager/internal/domain"
	"adhan-manager/internal/logging"
)

// FileRepository implements domain.ConfigRepository on a YAML or JSON file,
// chosen by the file extension.
// This is a secondary adapter.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a new file-based settings repository.
func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	return &FileRepository{path: path}, nil
}

// Path returns the backing file.
func (f *FileRepository) Path() string {
	return f.path
}

// persistedData represents the file structure on disk.
type persistedData struct {
	Latitude              float64          `json:"latitude" yaml:"latitude"`
	Longitude             float64          `json:"longitude" yaml:"longitude"`
	Method                string           `json:"method,omitempty" yaml:"method,omitempty"`
	CustomMethod          *persistedCustom `json:"customMethod,omitempty" yaml:"customMethod,omitempty"`
	Adjustments           map[string]int   `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`
	AsrTime               string           `json:"asrTime,omitempty" yaml:"asrTime,omitempty"`
	HighLatitudeRule      string           `json:"highLatitudeRule,omitempty" yaml:"highLatitudeRule,omitempty"`
	PolarCircleResolution string           `json:"polarCircleResolution,omitempty" yaml:"polarCircleResolution,omitempty"`
	Timezone              string           `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Hour12                *bool            `json:"hour12,omitempty" yaml:"hour12,omitempty"`
	ShowWeekday           bool             `json:"showWeekday,omitempty" yaml:"showWeekday,omitempty"`
	NotifyCommand         string           `json:"notifyCommand,omitempty" yaml:"notifyCommand,omitempty"`
}

type persistedCustom struct {
	FajrAngle         *float64       `json:"fajrAngle,omitempty" yaml:"fajrAngle,omitempty"`
	IshaAngle         *float64       `json:"ishaAngle,omitempty" yaml:"ishaAngle,omitempty"`
	IshaInterval      *int           `json:"ishaInterval,omitempty" yaml:"ishaInterval,omitempty"`
	MaghribAngle      *float64       `json:"maghribAngle,omitempty" yaml:"maghribAngle,omitempty"`
	MethodAdjustments map[string]int `json:"methodAdjustments,omitempty" yaml:"methodAdjustments,omitempty"`
}

func (f *FileRepository) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(f.path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the settings from disk, or returns defaults if the file does not exist.
func (f *FileRepository) Load() (domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("read config: %w", err)
	}

	var persisted persistedData
	if f.isYAML() {
		err = yaml.Unmarshal(data, &persisted)
	} else {
		err = json.Unmarshal(data, &persisted)
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return toSettings(persisted)
}

// Save persists the settings to disk.
func (f *FileRepository) Save(settings domain.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	persisted := fromSettings(settings)
	var (
		data []byte
		err  error
	)
	if f.isYAML() {
		data, err = yaml.Marshal(persisted)
	} else {
		data, err = json.MarshalIndent(persisted, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Atomic write
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}

	return nil
}

func toSettings(p persistedData) (domain.Settings, error) {
	defaults := domain.DefaultSettings()
	s := domain.Settings{
		Calculation: domain.CalculationsConfig{
			Latitude:              p.Latitude,
			Longitude:             p.Longitude,
			AsrTime:               domain.AsrTime(strings.ToLower(p.AsrTime)),
			HighLatitudeRule:      domain.HighLatitudeRule(strings.ToLower(p.HighLatitudeRule)),
			PolarCircleResolution: domain.PolarCircleResolution(strings.ToLower(p.PolarCircleResolution)),
		},
		Timezone:      p.Timezone,
		Hour12:        defaults.Hour12,
		ShowWeekday:   p.ShowWeekday,
		NotifyCommand: p.NotifyCommand,
	}
	if s.Timezone == "" {
		s.Timezone = defaults.Timezone
	}
	if p.Hour12 != nil {
		s.Hour12 = *p.Hour12
	}

	adj, err := domain.ParseAdjustments(p.Adjustments)
	if err != nil {
		return domain.Settings{}, err
	}
	s.Calculation.Adjustments = adj

	if p.CustomMethod != nil {
		methodAdj, err := domain.ParseAdjustments(p.CustomMethod.MethodAdjustments)
		if err != nil {
			return domain.Settings{}, err
		}
		s.Calculation.Method = domain.Custom(domain.CustomMethod{
			FajrAngle:         p.CustomMethod.FajrAngle,
			IshaAngle:         p.CustomMethod.IshaAngle,
			IshaInterval:      p.CustomMethod.IshaInterval,
			MaghribAngle:      p.CustomMethod.MaghribAngle,
			MethodAdjustments: methodAdj,
		})
		return s, nil
	}

	method, ok := domain.ParseMethod(p.Method)
	if !ok && p.Method != "" {
		logging.Warnf("unknown method %q, falling back to %s", p.Method, domain.DefaultMethod)
	}
	s.Calculation.Method = domain.NamedMethod(method)
	return s, nil
}

func fromSettings(s domain.Settings) persistedData {
	hour12 := s.Hour12
	c := s.Calculation
	p := persistedData{
		Latitude:              c.Latitude,
		Longitude:             c.Longitude,
		Adjustments:           formatAdjustments(c.Adjustments),
		AsrTime:               string(c.AsrTime),
		HighLatitudeRule:      string(c.HighLatitudeRule),
		PolarCircleResolution: string(c.PolarCircleResolution),
		Timezone:              s.Timezone,
		Hour12:                &hour12,
		ShowWeekday:           s.ShowWeekday,
		NotifyCommand:         s.NotifyCommand,
	}
	if cm := c.Method.Custom; cm != nil {
		p.CustomMethod = &persistedCustom{
			FajrAngle:         cm.FajrAngle,
			IshaAngle:         cm.IshaAngle,
			IshaInterval:      cm.IshaInterval,
			MaghribAngle:      cm.MaghribAngle,
			MethodAdjustments: formatAdjustments(cm.MethodAdjustments),
		}
	} else {
		p.Method = string(c.Method.Named)
	}
	return p
}

func formatAdjustments(in domain.Adjustments) map[string]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]int, len(in))
	for p, v := range in {
		out[string(p)] = v
	}
	return out
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", "adhan-manager", "config.yaml")
	}
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, "adhan-manager-config.yaml")
}
