// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/txtr/holon/api"
	"github.com/txtr/holon/api/base"
	"github.com/txtr/holon/cmd"
	"github.com/txtr/holon/config"
	"github.com/txtr/holon/core/object"
	"github.com/txtr/holon/core/patch"
)

const callDoc = `
Calls one reaktor function and writes its result. Each argument is
read as JSON; arguments that are not valid JSON are sent as strings.

Examples:

    holon call WSAuth.authenticateAnonymous
    holon call --patch WSDocMgmt.getDocument "$TOKEN" 3bcd7f
    holon call --args-file args.json WSListMgmt.getLists
`

type callCommand struct {
	*globals

	out      cmd.Output
	function string
	rawArgs  []string
	argsFile cmd.FileVar
	headers  headerValue
	patch    bool
	keepIDs  bool
	history  bool
}

func (c *callCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "call",
		Args:    "<Interface.function> [<arg>...]",
		Purpose: "Call a reaktor function.",
		Doc:     callDoc,
	}
}

func (c *callCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
	f.Var(&c.argsFile, "args-file", "Read the arguments from a JSON array in this file (- for stdin)")
	f.Var(&c.headers, "header", "Extra HTTP header as name=value (repeatable)")
	f.BoolVar(&c.patch, "patch", false, "Replace the attribute ids of the result by their names")
	f.BoolVar(&c.keepIDs, "keep-ids", false, "Keep the attribute ids along with their names")
	f.BoolVar(&c.history, "history", false, "Write the call history to stderr")
}

func (c *callCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no function specified")
	}
	c.function, c.rawArgs = args[0], args[1:]
	if !strings.Contains(c.function, ".") {
		return errors.NotValidf("function %q: expected Interface.function", c.function)
	}
	if c.argsFile.Path != "" && len(c.rawArgs) > 0 {
		return errors.New("cannot combine --args-file with arguments")
	}
	return nil
}

// parseArgs reads the call arguments from the command line or the
// arguments file.
func (c *callCommand) parseArgs(ctx *cmd.Context) ([]any, error) {
	if c.argsFile.Path != "" {
		data, err := c.argsFile.Read(ctx)
		if err != nil {
			return nil, errors.Annotate(err, "reading arguments")
		}
		var args []any
		if err := decodeJSON(data, &args); err != nil {
			return nil, errors.Annotatef(err, "arguments file %q", c.argsFile.Path)
		}
		return args, nil
	}
	args := make([]any, len(c.rawArgs))
	for i, raw := range c.rawArgs {
		var v any
		if err := decodeJSON([]byte(raw), &v); err != nil {
			v = raw
		}
		args[i] = v
	}
	return args, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

func (c *callCommand) Run(ctx *cmd.Context) error {
	args, err := c.parseArgs(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	r, closer, err := c.setUp(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer closer.Close()
	if c.history {
		r.KeepHistory = true
	}
	conn, err := config.Open(r)
	if err != nil {
		return errors.Trace(err)
	}
	defer conn.Close()

	iface, function := splitFunction(c.function)
	result, callErr := conn.Interface(iface).Call(ctx, function, args, base.WithHeaders(c.headers.header))
	if c.history {
		writeHistory(ctx.Stderr, conn.Client.History())
	}
	if callErr != nil {
		return errors.Trace(callErr)
	}
	v, ok := result.(object.Value)
	if !ok {
		return errors.Errorf("unexpected %T result", result)
	}
	if c.patch {
		v = patch.Patch(v, c.keepIDs)
	}
	return c.out.Write(ctx, v)
}

// writeHistory writes a tabular view of the calls made.
func writeHistory(w io.Writer, entries []api.HistoryEntry) {
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("Method", "Status", "Took", "URL")
	for _, entry := range entries {
		status := "ERR"
		if entry.Status >= 0 {
			status = fmt.Sprint(entry.Status)
		}
		table.AddRow(entry.Method, status, entry.Duration.Round(time.Millisecond), entry.URL)
	}
	fmt.Fprintln(w, table)
}

func splitFunction(name string) (iface, function string) {
	i := strings.LastIndex(name, ".")
	return name[:i], name[i+1:]
}

// headerValue implements gnuflag.Value for repeated --header options.
type headerValue struct {
	header http.Header
}

func (h *headerValue) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return errors.NotValidf("header %q", v)
	}
	if h.header == nil {
		h.header = make(http.Header)
	}
	h.header.Add(name, value)
	return nil
}

func (h *headerValue) String() string {
	var parts []string
	for name, values := range h.header {
		for _, v := range values {
			parts = append(parts, name+"="+v)
		}
	}
	return strings.Join(parts, ",")
}
