// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package downloader_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/txtr/holon/downloader"
	coretesting "github.com/txtr/holon/internal/testing"
	"github.com/txtr/holon/rpc/httptransport"
	"github.com/txtr/holon/rpc/params"
)

type downloaderSuite struct {
	coretesting.BaseSuite
	server *coretesting.FakeReaktor
	dl     *downloader.Downloader
	dir    string
}

var _ = gc.Suite(&downloaderSuite{})

func (s *downloaderSuite) SetUpTest(c *gc.C) {
	s.BaseSuite.SetUpTest(c)
	s.server = coretesting.NewFakeReaktor()
	s.AddCleanup(func(*gc.C) { s.server.Close() })

	cfg := httptransport.DefaultConfig()
	cfg.Host = s.server.Host()
	cfg.Port = s.server.Port()
	cfg.SSL = false
	dl, err := downloader.New(cfg)
	c.Assert(err, jc.ErrorIsNil)
	s.dl = dl
	s.dir = c.MkDir()
}

func (s *downloaderSuite) TestURL(c *gc.C) {
	cfg := httptransport.DefaultConfig()
	dl, err := downloader.New(cfg)
	c.Assert(err, jc.ErrorIsNil)

	c.Check(dl.URL(downloader.Request{Token: "t0k", DocumentID: "doc1"}), gc.Equals,
		"https://txtr.com:443/delivery/document/doc1?token=t0k")
	c.Check(dl.URL(downloader.Request{
		Token:      "t0k",
		DocumentID: "doc1",
		AccessType: downloader.AccessADEPTDRM,
		Preview:    "EPUB",
		Version:    3,
	}), gc.Equals,
		"https://txtr.com:443/delivery/document/doc1/metadata/com.bookpac.exporter.fulfillmenttoken?token=t0k&deliverable=PREVIEW&format=EPUB&v=3")
}

func (s *downloaderSuite) TestValidate(c *gc.C) {
	path := filepath.Join(s.dir, "out")
	_, err := s.dl.Download(context.Background(), downloader.Request{DocumentID: "doc1", Path: path, AccessType: "PDF"})
	c.Check(err, gc.ErrorMatches, `access type "PDF" not valid`)
	_, err = s.dl.Download(context.Background(), downloader.Request{Path: path})
	c.Check(err, jc.ErrorIs, errors.NotValid)
	_, err = s.dl.Download(context.Background(), downloader.Request{DocumentID: "doc1", Path: path, Version: -1})
	c.Check(err, jc.ErrorIs, errors.NotValid)
	c.Check(s.server.Downloads(), gc.HasLen, 0)
}

func (s *downloaderSuite) TestDownload(c *gc.C) {
	s.server.AddDocument("doc1", coretesting.Document{Filename: "book.epub", Content: []byte("epub bytes")})
	path := filepath.Join(s.dir, "out")

	var ratios []float64
	name, err := s.dl.Download(context.Background(), downloader.Request{
		Token:      "t0k",
		DocumentID: "doc1",
		Path:       path,
		Progress: func(ratio float64) bool {
			ratios = append(ratios, ratio)
			return false
		},
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(name, gc.Equals, "book.epub")

	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "epub bytes")

	c.Assert(ratios, gc.Not(gc.HasLen), 0)
	c.Check(ratios[len(ratios)-1], gc.Equals, 1.0)

	downloads := s.server.Downloads()
	c.Assert(downloads, gc.HasLen, 1)
	c.Check(downloads[0].URL.Query().Get("token"), gc.Equals, "t0k")
	c.Check(downloads[0].Header.Get("User-Agent"), gc.Matches, "holon/.*")
}

func (s *downloaderSuite) TestDownloadRateLimited(c *gc.C) {
	s.server.AddDocument("doc1", coretesting.Document{Content: []byte("epub bytes")})
	path := filepath.Join(s.dir, "out")

	_, err := s.dl.Download(context.Background(), downloader.Request{
		Token:          "t0k",
		DocumentID:     "doc1",
		Path:           path,
		BytesPerSecond: 1 << 20,
	})
	c.Assert(err, jc.ErrorIsNil)
	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "epub bytes")

	_, err = s.dl.Download(context.Background(), downloader.Request{DocumentID: "doc1", Path: path, BytesPerSecond: -1})
	c.Check(err, gc.ErrorMatches, "negative BytesPerSecond not valid")
}

func (s *downloaderSuite) TestDownloadDRM(c *gc.C) {
	s.server.AddDocument("doc1", coretesting.Document{Content: []byte("<fulfillmentToken/>")})
	path := filepath.Join(s.dir, "token.acsm")

	name, err := s.dl.Download(context.Background(), downloader.Request{
		Token:      "t0k",
		DocumentID: "doc1",
		Path:       path,
		AccessType: downloader.AccessADEPTDRM,
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(name, gc.Equals, "")
	downloads := s.server.Downloads()
	c.Assert(downloads, gc.HasLen, 1)
	c.Check(downloads[0].URL.Path, gc.Equals, "/delivery/document/doc1/metadata/com.bookpac.exporter.fulfillmenttoken")
}

func (s *downloaderSuite) TestStatusError(c *gc.C) {
	path := filepath.Join(s.dir, "out")
	_, err := s.dl.Download(context.Background(), downloader.Request{Token: "t0k", DocumentID: "missing", Path: path})
	c.Assert(err, jc.ErrorIs, params.ErrHTTP)
	c.Check(err, gc.ErrorMatches, "404 | server returned status 404")
	c.Check(path, jc.DoesNotExist)
}

func (s *downloaderSuite) TestCancel(c *gc.C) {
	s.server.AddDocument("doc1", coretesting.Document{Content: []byte("epub bytes")})
	path := filepath.Join(s.dir, "out")

	_, err := s.dl.Download(context.Background(), downloader.Request{
		Token:      "t0k",
		DocumentID: "doc1",
		Path:       path,
		Progress:   func(float64) bool { return true },
	})
	c.Assert(err, jc.ErrorIs, params.ErrIO)
	c.Check(err, jc.ErrorIs, downloader.ErrCanceled)
	c.Check(path, jc.DoesNotExist)
}

func (s *downloaderSuite) TestWriteError(c *gc.C) {
	s.server.AddDocument("doc1", coretesting.Document{Content: []byte("epub bytes")})
	path := filepath.Join(s.dir, "no", "such", "dir", "out")

	_, err := s.dl.Download(context.Background(), downloader.Request{Token: "t0k", DocumentID: "doc1", Path: path})
	c.Assert(err, jc.ErrorIs, params.ErrIO)
	c.Check(params.ErrCode(err), gc.Equals, "IO")
}

func (s *downloaderSuite) TestConnectionError(c *gc.C) {
	s.server.Close()
	_, err := s.dl.Download(context.Background(), downloader.Request{Token: "t0k", DocumentID: "doc1", Path: filepath.Join(s.dir, "out")})
	c.Assert(err, jc.ErrorIs, params.ErrIO)
	c.Check(err, jc.ErrorIs, httptransport.ErrCommunication)
}

func (s *downloaderSuite) TestFilename(c *gc.C) {
	for i, test := range []struct {
		header string
		name   string
	}{{
		header: `attachment;filename="book.epub"`,
		name:   "book.epub",
	}, {
		header: `attachment; filename="a b.pdf"`,
		name:   "a b.pdf",
	}, {
		header: "attachment;filename=\"bad\x01name\x7f.pdf\"",
		name:   "bad_name_.pdf",
	}, {
		header: "attachment;filename=\"caf\xe9\x85.pdf\"",
		name:   "café_.pdf",
	}, {
		header: `inline`,
		name:   "",
	}} {
		c.Logf("test %d: %q", i, test.header)
		header := http.Header{"Content-Disposition": []string{test.header}}
		c.Check(downloader.Filename(header), gc.Equals, test.name)
	}
}
