// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/txtr/holon/cmd"
	"github.com/txtr/holon/config"
	"github.com/txtr/holon/internal/logging"
)

var logger = loggo.GetLogger("holon.cmd.holon")

// ConfigEnvKey names the environment variable holding the path of the
// settings file.
const ConfigEnvKey = "HOLON_CONFIG"

const holonDoc = `
holon talks to txtr reaktors. The reaktors are described in a YAML
settings file, read from $HOLON_CONFIG or ~/.holon.yaml. Without a
settings file the public reaktor is used.
`

// NewHolonCommand returns the holon command with its subcommands.
func NewHolonCommand() cmd.Command {
	g := &globals{}
	holon := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:     "holon",
		Purpose:  "Call the reaktor JSON-RPC interfaces.",
		Doc:      holonDoc,
		SetFlags: g.setFlags,
	})
	holon.Register(&callCommand{globals: g})
	holon.Register(&downloadCommand{globals: g})
	holon.Register(&versionCommand{globals: g})
	return holon
}

// globals are the options shared by every subcommand.
type globals struct {
	configPath string
	reaktor    string
	logConfig  string
}

func (g *globals) setFlags(f *gnuflag.FlagSet) {
	f.StringVar(&g.configPath, "config", "", "Path of the settings file")
	f.StringVar(&g.reaktor, "r", "", "Name of the reaktor in the settings file")
	f.StringVar(&g.reaktor, "reaktor", "", "")
	f.StringVar(&g.logConfig, "log-config", "", "Logging configuration, e.g. <root>=DEBUG")
}

func (g *globals) settingsPath() (path string, explicit bool) {
	if g.configPath != "" {
		return g.configPath, true
	}
	if path := os.Getenv(ConfigEnvKey); path != "" {
		return path, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".holon.yaml"), false
}

func (g *globals) settings(ctx *cmd.Context) (*config.Settings, error) {
	path, explicit := g.settingsPath()
	if path != "" {
		settings, err := config.Load(ctx.AbsPath(path))
		if err == nil {
			return settings, nil
		}
		if explicit || !errors.Is(err, errors.NotFound) {
			return nil, errors.Trace(err)
		}
	}
	return config.Parse([]byte("reaktors:\n  " + config.DefaultReaktor + ": {}\n"))
}

// setUp reads the settings, configures logging and returns the chosen
// reaktor. The closer must be closed once the command is done.
func (g *globals) setUp(ctx *cmd.Context) (config.Reaktor, io.Closer, error) {
	settings, err := g.settings(ctx)
	if err != nil {
		return config.Reaktor{}, nil, errors.Trace(err)
	}
	logConfig := logging.Config{
		Spec:       settings.Logging.Config,
		File:       settings.Logging.File,
		MaxSizeMB:  settings.Logging.MaxSizeMB,
		MaxBackups: settings.Logging.MaxBackups,
	}
	if g.logConfig != "" {
		logConfig.Spec = g.logConfig
	}
	closer, err := logging.Configure(logConfig)
	if err != nil {
		return config.Reaktor{}, nil, errors.Trace(err)
	}
	r, err := settings.Reaktor(g.reaktor)
	if err != nil {
		_ = closer.Close()
		return config.Reaktor{}, nil, errors.Trace(err)
	}
	logger.Debugf("using reaktor %q at %s:%d", r.Name, r.Host, r.Port)
	return r, closer, nil
}
