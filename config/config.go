// Package config loads generator defaults from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mastercactapus/cncwarmup/ramp"
)

type Config struct {
	// Settings are the defaults offered for every new program.
	Settings ramp.Settings
	Dialect  ramp.Dialect
	Layout   string
	SafeZ    float64

	MachinesFile string
	OutputDir    string
	LogLevel     string

	Addr    string
	DataDir string

	Serial SerialConfig
	// SPJSURL is the websocket of a serial-port-json-server bridge.
	SPJSURL string
}

type SerialConfig struct {
	Port string
	Baud int
}

// Load reads the given env files (or ./.env if present) and then the WARMUP_*
// environment variables over the built-in defaults.
func Load(files ...string) (*Config, error) {
	if len(files) > 0 {
		err := godotenv.Load(files...)
		if err != nil {
			return nil, err
		}
	} else {
		_ = godotenv.Load()
	}

	p := &parser{}
	def := ramp.DefaultSettings()
	cfg := &Config{
		Settings: ramp.Settings{
			StartRPM:   p.float("WARMUP_START_RPM", def.StartRPM),
			FinishRPM:  p.float("WARMUP_FINISH_RPM", def.FinishRPM),
			StartFeed:  p.float("WARMUP_START_FEED", def.StartFeed),
			FinishFeed: p.float("WARMUP_FINISH_FEED", def.FinishFeed),
			Coolant:    p.bool("WARMUP_COOLANT", def.Coolant),
			Tool:       p.int("WARMUP_TOOL", def.Tool),
			StepCount:  p.int("WARMUP_STEPS", def.StepCount),
		},
		Dialect: p.dialect("WARMUP_DIALECT", ramp.LabelLoop),
		Layout:  getEnv("WARMUP_LAYOUT", "loop"),
		SafeZ:   p.float("WARMUP_SAFE_Z", 200),

		MachinesFile: getEnv("WARMUP_MACHINES_FILE", ""),
		OutputDir:    getEnv("WARMUP_OUTPUT_DIR", "./output"),
		LogLevel:     getEnv("WARMUP_LOG_LEVEL", "info"),

		Addr:    getEnv("WARMUP_ADDR", ":9091"),
		DataDir: getEnv("WARMUP_DATA_DIR", "./data"),

		Serial: SerialConfig{
			Port: getEnv("WARMUP_SERIAL_PORT", "/dev/ttyUSB0"),
			Baud: p.int("WARMUP_SERIAL_BAUD", 9600),
		},
		SPJSURL: getEnv("WARMUP_SPJS_URL", ""),
	}
	if p.err != nil {
		return nil, p.err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// parser keeps the first malformed variable so Load can report it.
type parser struct{ err error }

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
}

func (p *parser) float(key string, def float64) float64 {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}

func (p *parser) int(key string, def int) int {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}

func (p *parser) dialect(key string, def ramp.Dialect) ramp.Dialect {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	d, err := ramp.ParseDialect(s)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}
