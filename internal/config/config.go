package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tai-DucTran/Panny/internal/schedule"
)

type Config struct {
	Version   string          `yaml:"version" json:"version"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Care      CareConfig      `yaml:"care" json:"care"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
	PlantInfo PlantInfoConfig `yaml:"plant_info" json:"plant_info"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

type CareConfig struct {
	WateringCompletableWithinDays  int `yaml:"watering_completable_within_days" json:"watering_completable_within_days"`
	RepottingCompletableWithinDays int `yaml:"repotting_completable_within_days" json:"repotting_completable_within_days"`
}

type AuthConfig struct {
	OTPTTLMinutes   int `yaml:"otp_ttl_minutes" json:"otp_ttl_minutes"`
	SessionTTLHours int `yaml:"session_ttl_hours" json:"session_ttl_hours"`
}

type PlantInfoConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	APIKey         string `yaml:"api_key" json:"-"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

func (s *ServerConfig) ApplyDefaults() {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.DataDir == "" {
		s.DataDir = "data"
	}
}

func (c *CareConfig) ApplyDefaults() {
	def := schedule.DefaultRules()
	if c.WateringCompletableWithinDays == 0 {
		c.WateringCompletableWithinDays = def.WateringCompletableWithinDays
	}
	if c.RepottingCompletableWithinDays == 0 {
		c.RepottingCompletableWithinDays = def.RepottingCompletableWithinDays
	}
}

func (a *AuthConfig) ApplyDefaults() {
	if a.OTPTTLMinutes == 0 {
		a.OTPTTLMinutes = 10
	}
	if a.SessionTTLHours == 0 {
		a.SessionTTLHours = 7 * 24
	}
}

func (p *PlantInfoConfig) ApplyDefaults() {
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = 30
	}
}

func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Care.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.PlantInfo.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.Care.WateringCompletableWithinDays < 1 {
		return fmt.Errorf("care.watering_completable_within_days must be >= 1, got %d", c.Care.WateringCompletableWithinDays)
	}
	if c.Care.RepottingCompletableWithinDays < 1 {
		return fmt.Errorf("care.repotting_completable_within_days must be >= 1, got %d", c.Care.RepottingCompletableWithinDays)
	}
	if c.Auth.OTPTTLMinutes < 1 {
		return fmt.Errorf("auth.otp_ttl_minutes must be >= 1, got %d", c.Auth.OTPTTLMinutes)
	}
	if c.Auth.SessionTTLHours < 1 {
		return fmt.Errorf("auth.session_ttl_hours must be >= 1, got %d", c.Auth.SessionTTLHours)
	}
	return nil
}

// Rules converts the care section into classifier rules.
func (c *CareConfig) Rules() schedule.Rules {
	return schedule.Rules{
		WateringCompletableWithinDays:  c.WateringCompletableWithinDays,
		RepottingCompletableWithinDays: c.RepottingCompletableWithinDays,
	}
}

func (a *AuthConfig) OTPTTL() time.Duration {
	return time.Duration(a.OTPTTLMinutes) * time.Minute
}

func (a *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

func (p *PlantInfoConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOrDefault returns defaults when no config file exists at path.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return c, nil
}
