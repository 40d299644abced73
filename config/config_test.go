// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/txtr/holon/api/caching"
	"github.com/txtr/holon/config"
	"github.com/txtr/holon/core/auditlog"
	coretesting "github.com/txtr/holon/internal/testing"
)

type configSuite struct {
	coretesting.BaseSuite
}

var _ = gc.Suite(&configSuite{})

const sampleSettings = `
reaktors:
  live:
    do-retry: true
    keep-history: true
  staging:
    host: reaktor.intern.txtr.com
    port: 8080
    run-timeout: 2m
    connect-timeout: 5
    retry-sleep: 250ms
    no-retry: [WSShopMgmt.checkoutBasket, WSShopMgmt.pay]
    ids: ulid
logging:
  config: <root>=WARNING;holon.api=DEBUG
  file: /tmp/holon.log
  max-size-mb: 10
`

func (s *configSuite) TestParseDefaults(c *gc.C) {
	settings, err := config.Parse([]byte(sampleSettings))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(settings.Names(), jc.DeepEquals, []string{"live", "staging"})

	live, err := settings.Reaktor("live")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(live.Name, gc.Equals, "live")
	c.Check(live.Host, gc.Equals, "txtr.com")
	c.Check(live.Port, gc.Equals, 443)
	c.Check(live.Path, gc.Equals, "/json/rpc")
	c.Check(*live.SSL, jc.IsTrue)
	c.Check(time.Duration(live.ConnectTimeout), gc.Equals, 20*time.Second)
	c.Check(time.Duration(live.RunTimeout), gc.Equals, 40*time.Second)
	c.Check(time.Duration(live.RetrySleep), gc.Equals, time.Second)
	c.Check(live.DoRetry, jc.IsTrue)
	c.Check(live.IDs, gc.Equals, "random")

	c.Check(settings.Logging, jc.DeepEquals, config.Logging{
		Config:    "<root>=WARNING;holon.api=DEBUG",
		File:      "/tmp/holon.log",
		MaxSizeMB: 10,
	})
}

func (s *configSuite) TestParseExplicit(c *gc.C) {
	settings, err := config.Parse([]byte(sampleSettings))
	c.Assert(err, jc.ErrorIsNil)
	staging, err := settings.Reaktor("staging")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(*staging.SSL, jc.IsFalse)
	c.Check(time.Duration(staging.RunTimeout), gc.Equals, 2*time.Minute)
	c.Check(time.Duration(staging.ConnectTimeout), gc.Equals, 5*time.Second)
	c.Check(time.Duration(staging.RetrySleep), gc.Equals, 250*time.Millisecond)
	c.Check(staging.NoRetry, jc.DeepEquals, []string{"WSShopMgmt.checkoutBasket", "WSShopMgmt.pay"})

	cfg := staging.Transport()
	c.Check(cfg.Scheme(), gc.Equals, "http")
	c.Check(cfg.RunTimeout, gc.Equals, 2*time.Minute)
}

func (s *configSuite) TestReaktorSelection(c *gc.C) {
	settings, err := config.Parse([]byte(sampleSettings))
	c.Assert(err, jc.ErrorIsNil)
	_, err = settings.Reaktor("")
	c.Check(err, jc.ErrorIs, errors.NotFound)
	_, err = settings.Reaktor("prod")
	c.Check(err, gc.ErrorMatches, `reaktor "prod" not found`)

	settings, err = config.Parse([]byte("reaktors:\n  only: {}\n"))
	c.Assert(err, jc.ErrorIsNil)
	r, err := settings.Reaktor("")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(r.Name, gc.Equals, "only")
}

func (s *configSuite) TestParseErrors(c *gc.C) {
	for i, test := range []struct {
		yaml string
		err  string
	}{{
		yaml: "reaktors: [",
		err:  "cannot parse settings: .*",
	}, {
		yaml: "reaktors:\n  bad:\n    run-timeout: soon\n",
		err:  `cannot parse settings: duration "soon" at line 3 not valid`,
	}, {
		yaml: "reaktors:\n  bad:\n    path: json\n",
		err:  `reaktor "bad": path "json" not valid`,
	}, {
		yaml: "reaktors:\n  bad:\n    ids: serial\n",
		err:  `reaktor "bad": id generator "serial" not valid`,
	}} {
		c.Logf("test %d", i)
		_, err := config.Parse([]byte(test.yaml))
		c.Check(err, gc.ErrorMatches, test.err)
	}
}

func (s *configSuite) TestLoad(c *gc.C) {
	path := filepath.Join(c.MkDir(), "holon.yaml")
	_, err := config.Load(path)
	c.Check(err, jc.ErrorIs, errors.NotFound)

	err = os.WriteFile(path, []byte(sampleSettings), 0600)
	c.Assert(err, jc.ErrorIsNil)
	settings, err := config.Load(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(settings.Reaktors, gc.HasLen, 2)
}

func (s *configSuite) reaktor(c *gc.C, server *coretesting.FakeReaktor, extra string) config.Reaktor {
	settings, err := config.Parse([]byte(fmt.Sprintf(
		"reaktors:\n  test:\n    host: %s\n    port: %d\n    ssl: false\n%s",
		server.Host(), server.Port(), extra)))
	c.Assert(err, jc.ErrorIsNil)
	r, err := settings.Reaktor("test")
	c.Assert(err, jc.ErrorIsNil)
	return r
}

func (s *configSuite) TestOpen(c *gc.C) {
	server := coretesting.NewFakeReaktor()
	defer server.Close()
	server.Result("WSAuth.ping", "pong")

	conn, err := config.Open(s.reaktor(c, server, "    keep-history: true\n"))
	c.Assert(err, jc.ErrorIsNil)
	defer conn.Close()

	v, err := conn.Interface("WSAuth").Invoke(context.Background(), "ping")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.String(), gc.Equals, `"pong"`)
	c.Check(conn.Client.History(), gc.HasLen, 1)
	c.Check(conn.Connection, gc.Equals, conn.Client)
}

func (s *configSuite) TestOpenCaching(c *gc.C) {
	server := coretesting.NewFakeReaktor()
	defer server.Close()
	server.Result("WSAuth.ping", "pong")

	conn, err := config.Open(s.reaktor(c, server, "    cache-calls: true\n"))
	c.Assert(err, jc.ErrorIsNil)
	defer conn.Close()
	_, ok := conn.Connection.(*caching.Client)
	c.Assert(ok, jc.IsTrue)

	for i := 0; i < 3; i++ {
		_, err := conn.Interface("WSAuth").Invoke(context.Background(), "ping")
		c.Assert(err, jc.ErrorIsNil)
	}
	c.Check(server.Count("WSAuth.ping"), gc.Equals, 1)
}

func (s *configSuite) TestOpenAuditLog(c *gc.C) {
	server := coretesting.NewFakeReaktor()
	defer server.Close()
	server.Result("WSAuth.ping", "pong")
	dir := c.MkDir()

	conn, err := config.Open(s.reaktor(c, server, "    audit-log-dir: "+dir+"\n"))
	c.Assert(err, jc.ErrorIsNil)
	_, err = conn.Interface("WSAuth").Invoke(context.Background(), "ping")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(conn.Close(), jc.ErrorIsNil)

	f, err := os.Open(filepath.Join(dir, auditlog.FileName))
	c.Assert(err, jc.ErrorIsNil)
	defer f.Close()
	entries, err := auditlog.ReadEntries(f)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(entries, gc.HasLen, 1)
	c.Check(entries[0].Method, gc.Equals, "WSAuth.ping")
	c.Check(entries[0].Status, gc.Equals, 200)
}
