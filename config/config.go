// Package config loads the launcher configuration from YAML with
// environment variable substitution on path values.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/drone/envsubst"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written as "500ms" or "5s"
// in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`           // loopback address probed and navigated to
	BindHost       string   `yaml:"bindHost"`       // HOSTNAME passed to the launched server
	RuntimeCommand string   `yaml:"runtimeCommand"` // system runtime fallback command
	ResourceDir    string   `yaml:"resourceDir"`    // bundled resource directory, "" to rely on exe dir and cwd
	AuditDB        string   `yaml:"auditDb"`        // sqlite path for the bootstrap audit trail, "" to disable
	ProbeTimeout   Duration `yaml:"probeTimeout"`
	PollInterval   Duration `yaml:"pollInterval"`
	MaxAttempts    int      `yaml:"maxAttempts"`
	GracePeriod    Duration `yaml:"gracePeriod"` // wait between interrupt and kill at teardown
}

// Default returns the configuration used when no file is given. The
// port matches the bundled server's fixed port.
func Default() *Config {
	return &Config{
		Port:           3000,
		Host:           "127.0.0.1",
		BindHost:       "0.0.0.0",
		RuntimeCommand: "node",
		ProbeTimeout:   Duration(time.Second),
		PollInterval:   Duration(500 * time.Millisecond),
		MaxAttempts:    120,
		GracePeriod:    Duration(5 * time.Second),
	}
}

// ParseConfig parses YAML on top of the defaults. Path values support
// ${VAR} environment substitution.
func ParseConfig(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	resourceDir, err := envsubst.EvalEnv(c.ResourceDir)
	if err != nil {
		return nil, err
	}
	c.ResourceDir = resourceDir

	auditDB, err := envsubst.EvalEnv(c.AuditDB)
	if err != nil {
		return nil, err
	}
	c.AuditDB = auditDB

	if c.Port <= 0 || c.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxAttempts <= 0 {
		return nil, fmt.Errorf("invalid maxAttempts %d", c.MaxAttempts)
	}
	return c, nil
}

// FromFile reads and parses a configuration file.
func FromFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}
