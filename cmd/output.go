// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/kr/pretty"
	"gopkg.in/yaml.v3"
)

// Formatter converts an arbitrary object into a []byte.
type Formatter func(value any) ([]byte, error)

// FormatYaml marshals value to a yaml-formatted []byte, unless value is nil.
func FormatYaml(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	result, err := yaml.Marshal(value)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSuffix(string(result), "\n")), nil
}

// FormatJson marshals value to an indented json-formatted []byte.
func FormatJson(value any) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}

// FormatPretty writes value as a Go literal. Values able to convert
// themselves to plain Go types are converted first.
func FormatPretty(value any) ([]byte, error) {
	if p, ok := value.(interface{ Interface() any }); ok {
		value = p.Interface()
	}
	return []byte(pretty.Sprintf("%# v", value)), nil
}

// DefaultFormatters are used by the holon commands.
var DefaultFormatters = map[string]Formatter{
	"yaml":   FormatYaml,
	"json":   FormatJson,
	"pretty": FormatPretty,
}

// formatterValue implements gnuflag.Value for the --format flag.
type formatterValue struct {
	name       string
	formatters map[string]Formatter
}

// newFormatterValue returns a new formatterValue. The initial Formatter name
// must be present in formatters.
func newFormatterValue(initial string, formatters map[string]Formatter) *formatterValue {
	v := &formatterValue{formatters: formatters}
	if err := v.Set(initial); err != nil {
		panic(err)
	}
	return v
}

// Set stores the chosen formatter name in v.name.
func (v *formatterValue) Set(value string) error {
	if v.formatters[value] == nil {
		return fmt.Errorf("unknown format %q", value)
	}
	v.name = value
	return nil
}

// String returns the chosen formatter name.
func (v *formatterValue) String() string {
	return v.name
}

// doc returns documentation for the --format flag.
func (v *formatterValue) doc() string {
	choices := make([]string, 0, len(v.formatters))
	for name := range v.formatters {
		choices = append(choices, name)
	}
	sort.Strings(choices)
	return "Specify output format (" + strings.Join(choices, "|") + ")"
}

// format runs the chosen formatter on value.
func (v *formatterValue) format(value any) ([]byte, error) {
	return v.formatters[v.name](value)
}

// Output is responsible for interpreting output-related command line flags
// and writing a value to a file or to stdout as directed.
type Output struct {
	formatter *formatterValue
	outPath   string
}

// AddFlags injects appropriate command line flags into f.
func (c *Output) AddFlags(f *gnuflag.FlagSet, defaultFormatter string, formatters map[string]Formatter) {
	c.formatter = newFormatterValue(defaultFormatter, formatters)
	f.Var(c.formatter, "format", c.formatter.doc())
	f.StringVar(&c.outPath, "o", "", "Specify an output file")
	f.StringVar(&c.outPath, "output", "", "")
}

// Name returns the name of the chosen formatter.
func (c *Output) Name() string {
	return c.formatter.name
}

// Write formats and outputs value as directed by the --format and --output
// command line flags.
func (c *Output) Write(ctx *Context, value any) (err error) {
	var target io.Writer
	if c.outPath == "" {
		target = ctx.Stdout
	} else {
		path := ctx.AbsPath(c.outPath)
		f, createErr := os.Create(path)
		if createErr != nil {
			return errors.Trace(createErr)
		}
		defer func() {
			if closeErr := f.Close(); err == nil {
				err = errors.Trace(closeErr)
			}
		}()
		target = f
	}
	bytes, err := c.formatter.format(value)
	if err != nil {
		return errors.Trace(err)
	}
	if len(bytes) > 0 {
		_, err = target.Write(bytes)
		if err == nil {
			_, err = target.Write([]byte{'\n'})
		}
	}
	return errors.Trace(err)
}
