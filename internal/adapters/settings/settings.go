// Package settings reads the per-instance settings from the environment.
package settings

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.trai.ch/ignite/internal/adapters/consul"
	"go.trai.ch/ignite/internal/core/domain"
	"go.trai.ch/zerr"
)

// Environment variables read at start.
const (
	EnvDeployment  = "IGNITE_DEPLOYMENT"
	EnvRole        = "IGNITE_ROLE"
	EnvGroup       = "IGNITE_GROUP"
	EnvInterfaces  = "IGNITE_INTERFACES"
	EnvStore       = "IGNITE_STORE"
	EnvStoreAddr   = "IGNITE_STORE_ADDR"
	EnvStoreToken  = "IGNITE_STORE_TOKEN"
	EnvStorePrefix = "IGNITE_STORE_PREFIX"
	EnvSessionTTL  = "IGNITE_SESSION_TTL"
	EnvGraph       = "IGNITE_GRAPH"
	EnvHostname    = "IGNITE_HOSTNAME"
	EnvPrivileged  = "IGNITE_PRIVILEGED_INSTALL"
	EnvLogLevel    = "IGNITE_LOG_LEVEL"
	EnvLogFormat   = "IGNITE_LOG_FORMAT"
	EnvFile        = "IGNITE_ENV_FILE"
)

const (
	// DefaultGraphPath is used when IGNITE_GRAPH is unset.
	DefaultGraphPath = "/etc/ignite/graph.yaml"

	// DefaultInterface is used when IGNITE_INTERFACES is unset.
	DefaultInterface = "eth0"

	defaultEnvFile = ".env"
)

// Load merges the env file into the process environment and reads the settings.
// Variables already set take precedence over the file. The file named by
// IGNITE_ENV_FILE must exist; the default .env is optional.
func Load() (*domain.Settings, error) {
	file := os.Getenv(EnvFile)
	switch {
	case file != "":
		if err := godotenv.Load(file); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, err.Error()), "env_file", file)
		}
	default:
		if _, err := os.Stat(defaultEnvFile); err == nil {
			if err := godotenv.Load(defaultEnvFile); err != nil {
				return nil, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, err.Error()), "env_file", defaultEnvFile)
			}
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the settings through lookup, applying defaults.
func FromLookup(lookup func(string) (string, bool)) (*domain.Settings, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	s := &domain.Settings{
		Deployment:  get(EnvDeployment, ""),
		Role:        get(EnvRole, ""),
		Group:       get(EnvGroup, ""),
		Interfaces:  splitList(get(EnvInterfaces, DefaultInterface)),
		Hostname:    get(EnvHostname, ""),
		GraphPath:   get(EnvGraph, DefaultGraphPath),
		Store:       strings.ToLower(get(EnvStore, domain.StoreConsul)),
		StoreAddr:   get(EnvStoreAddr, ""),
		StoreToken:  get(EnvStoreToken, ""),
		StorePrefix: get(EnvStorePrefix, consul.DefaultPrefix),
		SessionTTL:  consul.DefaultSessionTTL,
		LogLevel:    get(EnvLogLevel, ""),
		LogFormat:   get(EnvLogFormat, ""),
	}

	var errs []error
	if raw := get(EnvSessionTTL, ""); raw != "" {
		ttl, err := parseDuration(raw)
		if err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, "invalid session ttl"), EnvSessionTTL, raw))
		} else {
			s.SessionTTL = ttl
		}
	}
	if raw := get(EnvPrivileged, ""); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, "invalid boolean"), EnvPrivileged, raw))
		}
		s.Privileged = v
	}
	switch s.Store {
	case domain.StoreConsul, domain.StoreMemory:
	default:
		errs = append(errs, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, "unknown store"), EnvStore, s.Store))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(raw string) (time.Duration, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n <= 0 {
			return 0, domain.ErrSettingsInvalid
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, domain.ErrSettingsInvalid
	}
	return d, nil
}

func splitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
}
