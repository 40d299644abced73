// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config reads the holon settings file, which describes the
// reaktors a client may connect to and how holon logs.
//
// A settings file looks like:
//
//	reaktors:
//	  live:
//	    host: txtr.com
//	    do-retry: true
//	    keep-history: true
//	  staging:
//	    host: reaktor.intern.txtr.com
//	    port: 8080
//	    run-timeout: 2m
//	logging:
//	  config: <root>=WARNING;holon.api=DEBUG
//	  file: /var/log/holon/holon.log
package config

import (
	"os"
	"sort"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/yaml.v3"

	"github.com/txtr/holon/rpc"
	"github.com/txtr/holon/rpc/httptransport"
)

var logger = loggo.GetLogger("holon.config")

// DefaultReaktor is the reaktor used when no name is given.
const DefaultReaktor = "default"

// Duration is a time.Duration read from a YAML duration string such
// as "20s", or from a number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var seconds float64
	if err := node.Decode(&seconds); err == nil {
		*d = Duration(seconds * float64(time.Second))
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return errors.Annotatef(err, "line %d", node.Line)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.NotValidf("duration %q at line %d", s, node.Line)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Reaktor describes the connection to one reaktor.
type Reaktor struct {
	Name string `yaml:"-"`

	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	Path      string `yaml:"path,omitempty"`
	SSL       *bool  `yaml:"ssl,omitempty"`
	UserAgent string `yaml:"user-agent,omitempty"`

	ConnectTimeout Duration `yaml:"connect-timeout,omitempty"`
	RunTimeout     Duration `yaml:"run-timeout,omitempty"`

	// InsecureSkipVerify disables the verification of the server
	// certificate. Only use it against test installations.
	InsecureSkipVerify bool `yaml:"insecure-skip-verify,omitempty"`

	// RateLimit caps the calls per second; zero means no limit.
	RateLimit float64 `yaml:"rate-limit,omitempty"`
	Burst     int     `yaml:"burst,omitempty"`

	DoRetry    bool     `yaml:"do-retry,omitempty"`
	RetrySleep Duration `yaml:"retry-sleep,omitempty"`
	NoRetry    []string `yaml:"no-retry,omitempty"`

	KeepHistory bool   `yaml:"keep-history,omitempty"`
	CacheCalls  bool   `yaml:"cache-calls,omitempty"`
	AuditLogDir string `yaml:"audit-log-dir,omitempty"`

	// IDs selects the request id generator: "random", "ulid", "xid"
	// or "uuid".
	IDs string `yaml:"ids,omitempty"`
}

// Logging configures the holon loggers.
type Logging struct {
	// Config is a loggo configuration string.
	Config     string `yaml:"config,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max-size-mb,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty"`
}

// Settings is the content of a settings file.
type Settings struct {
	Reaktors map[string]Reaktor `yaml:"reaktors"`
	Logging  Logging            `yaml:"logging"`
}

// Load reads the settings file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("settings file %q", path)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	settings, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", path)
	}
	logger.Debugf("loaded %d reaktors from %s", len(settings.Reaktors), path)
	return settings, nil
}

// Parse reads settings from YAML. Every reaktor gets its defaults
// applied and is validated.
func Parse(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, errors.Annotate(err, "cannot parse settings")
	}
	for name, r := range settings.Reaktors {
		r.Name = name
		r = r.withDefaults()
		if err := r.Validate(); err != nil {
			return nil, errors.Annotatef(err, "reaktor %q", name)
		}
		settings.Reaktors[name] = r
	}
	return &settings, nil
}

// Names returns the sorted names of the configured reaktors.
func (s *Settings) Names() []string {
	names := make([]string, 0, len(s.Reaktors))
	for name := range s.Reaktors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reaktor returns the named reaktor. An empty name selects the only
// configured reaktor, or the one called DefaultReaktor.
func (s *Settings) Reaktor(name string) (Reaktor, error) {
	if name == "" {
		if len(s.Reaktors) == 1 {
			for _, r := range s.Reaktors {
				return r, nil
			}
		}
		name = DefaultReaktor
	}
	r, ok := s.Reaktors[name]
	if !ok {
		return Reaktor{}, errors.NotFoundf("reaktor %q", name)
	}
	return r, nil
}

func (r Reaktor) withDefaults() Reaktor {
	if r.Host == "" {
		r.Host = httptransport.DefaultHost
	}
	if r.Port == 0 {
		r.Port = httptransport.DefaultPort
	}
	if r.Path == "" {
		r.Path = httptransport.DefaultPath
	}
	if r.SSL == nil {
		ssl := r.Port == 443
		r.SSL = &ssl
	}
	if r.ConnectTimeout == 0 {
		r.ConnectTimeout = Duration(httptransport.DefaultConnectTimeout)
	}
	if r.RunTimeout == 0 {
		r.RunTimeout = Duration(httptransport.DefaultRunTimeout)
	}
	if r.RetrySleep == 0 {
		r.RetrySleep = Duration(time.Second)
	}
	if r.IDs == "" {
		r.IDs = rpc.RandomIDKind
	}
	return r
}

// Validate checks a reaktor once its defaults are applied.
func (r Reaktor) Validate() error {
	if err := r.Transport().Validate(); err != nil {
		return errors.Trace(err)
	}
	if r.RetrySleep < 0 {
		return errors.NotValidf("negative retry-sleep")
	}
	if _, err := rpc.NewIDGenerator(r.IDs); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Transport returns the HTTP transport configuration of the reaktor.
func (r Reaktor) Transport() httptransport.Config {
	cfg := httptransport.DefaultConfig()
	cfg.Host = r.Host
	cfg.Port = r.Port
	cfg.Path = r.Path
	if r.SSL != nil {
		cfg.SSL = *r.SSL
	}
	if r.UserAgent != "" {
		cfg.UserAgent = r.UserAgent
	}
	cfg.ConnectTimeout = time.Duration(r.ConnectTimeout)
	cfg.RunTimeout = time.Duration(r.RunTimeout)
	cfg.InsecureSkipVerify = r.InsecureSkipVerify
	cfg.RateLimit = r.RateLimit
	cfg.Burst = r.Burst
	return cfg
}
