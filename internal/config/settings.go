package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by LoadSettings.
const (
	EnvMaxThreads   = "CSVSOURCE_MAX_THREADS"
	EnvChunkSize    = "CSVSOURCE_STREAMING_CHUNK_SIZE"
	EnvScanRowLimit = "CSVSOURCE_SCAN_ROW_LIMIT"
	EnvLogLevel     = "CSVSOURCE_LOG_LEVEL"
)

// Settings are process level knobs shared by every source.
type Settings struct {
	MaxThreads   ConfigValue[int]
	ChunkSize    ConfigValue[int]
	ScanRowLimit ConfigValue[int64]
	LogLevel     ConfigValue[string]
}

// LoadSettings reads Settings from the environment after loading the given
// .env files. Variables already present in the environment are not overwritten.
func LoadSettings(envFiles ...string) (*Settings, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, errors.Wrap(err, "loading env files")
		}
	}

	params := map[string]string{}
	for _, key := range []string{EnvMaxThreads, EnvChunkSize, EnvScanRowLimit, EnvLogLevel} {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			params[key] = strings.TrimSpace(v)
		}
	}
	return ParseSettings(params)
}

// ParseSettings builds Settings from already collected key/value pairs.
func ParseSettings(params map[string]string) (*Settings, error) {
	s := &Settings{}
	var err error

	if s.MaxThreads, err = ParseIntConfigValue(params, EnvMaxThreads); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", EnvMaxThreads)
	}
	if s.ChunkSize, err = ParseIntConfigValue(params, EnvChunkSize); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", EnvChunkSize)
	}
	if n, ok := s.ChunkSize.Get(); ok && n <= 0 {
		return nil, errors.Errorf("invalid %s: %d must be positive", EnvChunkSize, n)
	}
	if s.ScanRowLimit, err = ParseInt64ConfigValue(params, EnvScanRowLimit); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", EnvScanRowLimit)
	}
	s.LogLevel = ParseStringConfigValue(params, EnvLogLevel)

	return s, nil
}
