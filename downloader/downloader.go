// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package downloader fetches document deliverables from a reaktor.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/ratelimit"

	"github.com/txtr/holon/rpc/httptransport"
	"github.com/txtr/holon/rpc/params"
	"github.com/txtr/holon/version"
)

var logger = loggo.GetLogger("holon.downloader")

// ErrCanceled is the type of the cause of downloads stopped by their
// progress function.
const ErrCanceled = errors.ConstError("download canceled")

// AccessADEPTDRM requests the fulfillment token of a DRM protected
// document instead of the document itself.
const AccessADEPTDRM = "ADEPT_DRM"

var accessPaths = map[string]string{
	AccessADEPTDRM: "/metadata/com.bookpac.exporter.fulfillmenttoken",
}

// ProgressFunc is called as a download proceeds with the ratio of
// bytes received, between 0 and 1; it is 0 while the size is unknown.
// Returning true cancels the download.
type ProgressFunc func(ratio float64) (cancel bool)

// Request describes one download.
type Request struct {
	Token      string
	DocumentID string

	// Path is the local file written.
	Path string

	// AccessType is empty or AccessADEPTDRM.
	AccessType string

	// Preview, when set, requests the preview deliverable in the
	// given format.
	Preview string

	// Version selects a document version, starting at 1. Zero means
	// the latest.
	Version int

	Progress ProgressFunc

	// BytesPerSecond limits the transfer rate when positive.
	BytesPerSecond int64
}

// Validate checks the request.
func (r Request) Validate() error {
	if r.DocumentID == "" {
		return errors.NotValidf("empty DocumentID")
	}
	if r.Path == "" {
		return errors.NotValidf("empty Path")
	}
	if _, ok := accessPaths[r.AccessType]; r.AccessType != "" && !ok {
		return errors.NotValidf("access type %q", r.AccessType)
	}
	if r.Version < 0 {
		return errors.NotValidf("version %d", r.Version)
	}
	if r.BytesPerSecond < 0 {
		return errors.NotValidf("negative BytesPerSecond")
	}
	return nil
}

// Downloader fetches documents from the delivery endpoint of a
// reaktor.
type Downloader struct {
	config httptransport.Config
	client *http.Client
}

// New returns a Downloader for the reaktor described by config. The
// run timeout does not apply to downloads.
func New(config httptransport.Config) (*Downloader, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.UserAgent == "" {
		config.UserAgent = version.UserAgent()
	}
	client := config.HTTPClient
	if client == nil {
		client = httptransport.NewHTTPClient(config.ConnectTimeout, 0, config.InsecureSkipVerify)
	}
	return &Downloader{config: config, client: client}, nil
}

// URL returns the address of the deliverable described by req.
func (d *Downloader) URL(req Request) string {
	query := "token=" + url.QueryEscape(req.Token)
	if req.Preview != "" {
		query += "&deliverable=PREVIEW&format=" + url.QueryEscape(req.Preview)
	}
	if req.Version > 0 {
		query += "&v=" + strconv.Itoa(req.Version)
	}
	return fmt.Sprintf("%s://%s:%d/delivery/document/%s%s?%s",
		d.config.Scheme(), d.config.Host, d.config.Port,
		url.PathEscape(req.DocumentID), accessPaths[req.AccessType], query)
}

// Download fetches the deliverable into req.Path and returns the file
// name suggested by the server, if any. Network and local write
// failures and cancellation are reported as params.ErrIO errors, a
// non-200 status as params.ErrHTTP. Nothing is left at req.Path when
// the download fails.
func (d *Downloader) Download(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", errors.Trace(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL(req), nil)
	if err != nil {
		return "", errors.Trace(err)
	}
	httpReq.Header.Set("User-Agent", d.config.UserAgent)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", params.NewIOError(errors.WithType(
			errors.Annotatef(err, "downloading %s", req.DocumentID), httptransport.ErrCommunication))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", params.NewHTTPError(resp.StatusCode,
			fmt.Sprintf("server returned status %d", resp.StatusCode))
	}

	n, err := d.save(req, resp)
	if err != nil {
		if removeErr := os.Remove(req.Path); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warningf("cannot remove partial download %s: %v", req.Path, removeErr)
		}
		return "", params.NewIOError(err)
	}
	logger.Infof("downloaded %s (%s) to %s", req.DocumentID, humanize.Bytes(uint64(n)), req.Path)
	return Filename(resp.Header), nil
}

func (d *Downloader) save(req Request, resp *http.Response) (int64, error) {
	f, err := os.OpenFile(req.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, errors.Trace(err)
	}
	var body io.Reader = resp.Body
	if req.BytesPerSecond > 0 {
		body = ratelimit.Reader(body, ratelimit.NewBucketWithRate(float64(req.BytesPerSecond), req.BytesPerSecond))
	}
	if req.Progress != nil {
		body = &progressReader{r: body, total: resp.ContentLength, progress: req.Progress}
	}
	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, errors.Annotatef(err, "downloading %s", req.DocumentID)
	}
	return n, nil
}

type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	ratio := 0.0
	if p.total > 0 {
		ratio = float64(p.read) / float64(p.total)
	}
	if n > 0 || err == io.EOF {
		if p.progress(ratio) {
			return n, errors.WithType(errors.Errorf("download canceled after %s", humanize.Bytes(uint64(p.read))), ErrCanceled)
		}
	}
	return n, err
}

var filenameRE = regexp.MustCompile(`attachment;\s*filename="(.*?)"`)

// Filename returns the file name suggested by the Content-Disposition
// header, with control characters replaced by "_".
func Filename(header http.Header) string {
	match := filenameRE.FindStringSubmatch(header.Get("Content-Disposition"))
	if match == nil {
		return ""
	}
	return sanitize(match[1])
}

func sanitize(name string) string {
	isControl := func(r rune) bool {
		return r < 32 || (r >= 127 && r < 160)
	}
	var b strings.Builder
	if utf8.ValidString(name) {
		for _, r := range name {
			if isControl(r) {
				r = '_'
			}
			b.WriteRune(r)
		}
		return b.String()
	}
	// Not UTF-8: read as Latin-1.
	for i := 0; i < len(name); i++ {
		r := rune(name[i])
		if isControl(r) {
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}
