// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package httptransport posts reaktor requests over HTTP(S).
package httptransport

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/time/rate"

	"github.com/txtr/holon/rpc"
	"github.com/txtr/holon/version"
)

var logger = loggo.GetLogger("holon.rpc.httptransport")

// ErrCommunication is the type of every error returned when no HTTP
// response could be obtained.
const ErrCommunication = errors.ConstError("communication error")

// Defaults for the reaktor endpoint.
const (
	DefaultHost           = "txtr.com"
	DefaultPort           = 443
	DefaultPath           = "/json/rpc"
	DefaultConnectTimeout = 20 * time.Second
	DefaultRunTimeout     = 40 * time.Second
)

// Config holds the settings of a Transport.
type Config struct {
	Host string
	Port int
	Path string

	// SSL selects https. Callers normally set it to Port == 443.
	SSL bool

	UserAgent      string
	ConnectTimeout time.Duration
	RunTimeout     time.Duration

	// InsecureSkipVerify disables verification of the server
	// certificate.
	InsecureSkipVerify bool

	// RateLimit bounds the number of requests per second when
	// positive. Burst defaults to 1.
	RateLimit float64
	Burst     int

	Clock clock.Clock

	// HTTPClient is used instead of a client built from the timeouts
	// above when set.
	HTTPClient *http.Client
}

// DefaultConfig returns the configuration of the public reaktor.
func DefaultConfig() Config {
	return Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		Path:           DefaultPath,
		SSL:            true,
		ConnectTimeout: DefaultConnectTimeout,
		RunTimeout:     DefaultRunTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.NotValidf("empty Host")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.NotValidf("port %d", c.Port)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.NotValidf("path %q", c.Path)
	}
	if c.ConnectTimeout < 0 || c.RunTimeout < 0 {
		return errors.NotValidf("negative timeout")
	}
	if c.RateLimit < 0 {
		return errors.NotValidf("negative RateLimit")
	}
	return nil
}

// Scheme returns "https" or "http".
func (c Config) Scheme() string {
	if c.SSL {
		return "https"
	}
	return "http"
}

// Transport is an rpc.Transport posting to a single reaktor endpoint.
type Transport struct {
	config  Config
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	clock   clock.Clock
}

var _ rpc.Transport = (*Transport)(nil)

// New returns a Transport for the given configuration.
func New(config Config) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.UserAgent == "" {
		config.UserAgent = version.UserAgent()
	}
	if config.Clock == nil {
		config.Clock = clock.WallClock
	}
	client := config.HTTPClient
	if client == nil {
		client = NewHTTPClient(config.ConnectTimeout, config.RunTimeout, config.InsecureSkipVerify)
	}
	t := &Transport{
		config:  config,
		baseURL: fmt.Sprintf("%s://%s:%d%s", config.Scheme(), config.Host, config.Port, config.Path),
		client:  client,
		clock:   config.Clock,
	}
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return t, nil
}

// NewHTTPClient returns an HTTP client bounding the connect phase and,
// when runTimeout is positive, the whole exchange.
func NewHTTPClient(connectTimeout, runTimeout time.Duration, insecure bool) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connectTimeout,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: insecure},
	}
	return &http.Client{
		Transport: transport,
		Timeout:   runTimeout,
	}
}

// BaseURL implements rpc.Transport.
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// Protocol implements rpc.Transport.
func (t *Transport) Protocol() string {
	return strings.ToUpper(t.config.Scheme())
}

// Config returns the configuration of the transport.
func (t *Transport) Config() Config {
	return t.config
}

// Call implements rpc.Transport.
func (t *Transport) Call(ctx context.Context, body []byte, headers http.Header) (rpc.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return rpc.Response{}, errors.Trace(err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return rpc.Response{}, errors.Trace(err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.config.UserAgent)
	for name, values := range headers {
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	start := t.clock.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return rpc.Response{}, errors.WithType(errors.Annotatef(err, "POST %s", t.baseURL), ErrCommunication)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return rpc.Response{}, errors.WithType(errors.Annotatef(err, "reading response from %s", t.baseURL), ErrCommunication)
	}
	elapsed := t.clock.Now().Sub(start)
	logger.Tracef("%s responded %d in %v", t.baseURL, resp.StatusCode, elapsed)
	return rpc.Response{
		Status: resp.StatusCode,
		Data:   data,
		Time:   elapsed,
	}, nil
}

// VersionURL returns the URL of the version document of the server.
// Internal hosts serve it on port 8080.
func (t *Transport) VersionURL() string {
	port := t.config.Port
	if strings.Contains(t.config.Host, "intern") {
		port = 8080
	}
	return fmt.Sprintf("http://%s:%d/reaktor/version.txt", t.config.Host, port)
}

const versionPrefix = "version: "

// RemoteVersion fetches the version string reported by the server.
func (t *Transport) RemoteVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.VersionURL(), nil)
	if err != nil {
		return "", errors.Trace(err)
	}
	req.Header.Set("User-Agent", t.config.UserAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.WithType(errors.Annotate(err, "fetching remote version"), ErrCommunication)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("fetching remote version: server returned status %d", resp.StatusCode)
	}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, versionPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, versionPrefix)), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.WithType(errors.Annotate(err, "reading remote version"), ErrCommunication)
	}
	return "", errors.NotFoundf("version line in %s", t.VersionURL())
}
