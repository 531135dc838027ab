package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	HeartbeatMs    int `yaml:"heartbeat_ms"`
	SaveDebounceMs int `yaml:"save_debounce_ms"`
	TxnDeadlineMs  int `yaml:"txn_deadline_ms"`
	GraceWindowMs  int `yaml:"grace_window_ms"`

	TicksPerMinute         int     `yaml:"ticks_per_minute"`
	FuelDepletionPerMinute float64 `yaml:"fuel_depletion_per_minute"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:        "1.2",
		HeartbeatMs:            1500,
		SaveDebounceMs:         300,
		TxnDeadlineMs:          500,
		GraceWindowMs:          250,
		TicksPerMinute:         300,
		FuelDepletionPerMinute: 2.5,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.HeartbeatMs <= 0 {
		return fmt.Errorf("heartbeat_ms must be positive, got %d", t.HeartbeatMs)
	}
	if t.SaveDebounceMs < 0 {
		return fmt.Errorf("save_debounce_ms must not be negative, got %d", t.SaveDebounceMs)
	}
	if t.TxnDeadlineMs <= 0 {
		return fmt.Errorf("txn_deadline_ms must be positive, got %d", t.TxnDeadlineMs)
	}
	if t.GraceWindowMs < 0 {
		return fmt.Errorf("grace_window_ms must not be negative, got %d", t.GraceWindowMs)
	}
	if t.TicksPerMinute <= 0 {
		return fmt.Errorf("ticks_per_minute must be positive, got %d", t.TicksPerMinute)
	}
	if t.FuelDepletionPerMinute < 0 {
		return fmt.Errorf("fuel_depletion_per_minute must not be negative, got %v", t.FuelDepletionPerMinute)
	}
	return nil
}
