package poller

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// response bodies are drained (not kept) so connections can be reused
const maxDrainSize = 1 << 20 // 1MB

const defaultRequestTimeout = 100 * time.Second

// connection pooling limits. MaxConnsPerHost stays unlimited so the probes
// of one cycle never queue behind each other.
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
	defaultDialTimeout         = 30 * time.Second
	defaultKeepAlive           = 30 * time.Second
)

// ClientConfig configures a [Client].
type ClientConfig struct {
	// Timeout is the client-level timeout applied to every request,
	// including reading the response body. Defaults to 100s.
	Timeout time.Duration

	// AllowInsecure is consulted whenever a server certificate fails
	// verification. Returning true accepts the handshake anyway.
	// nil rejects every invalid certificate.
	AllowInsecure func() bool

	// RootCAs overrides the system roots used for verification.
	RootCAs *x509.CertPool

	// Logger receives certificate warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is the HTTP client shared by every probe of a running service.
//
// Client is safe for concurrent use. It is created once when the service
// starts and closed exactly once on the shutdown path; see [Client.Close].
type Client struct {
	httpClient    *http.Client
	transport     *http.Transport
	dialer        *net.Dialer
	allowInsecure func() bool
	rootCAs       *x509.CertPool
	logger        *slog.Logger
	closeOnce     sync.Once
}

// NewClient creates a new probing [Client].
//
// TLS connections are dialed by the client itself so that certificate
// verification failures can be routed through [ClientConfig.AllowInsecure]
// with the target host at hand.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		dialer: &net.Dialer{
			Timeout:   defaultDialTimeout,
			KeepAlive: defaultKeepAlive,
		},
		allowInsecure: cfg.AllowInsecure,
		rootCAs:       cfg.RootCAs,
		logger:        logger.With("component", "http_client"),
	}
	c.transport = &http.Transport{
		DialContext:         c.dialer.DialContext,
		DialTLSContext:      c.dialTLS,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}
	c.httpClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: c.transport,
	}
	return c
}

// Timeout returns the client-level request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Probe performs one request and classifies its result.
//
// Any HTTP response counts as [StatusCompleted], including 4xx and 5xx.
// Headers are applied as default headers of the request. Probe never
// returns an error; failures are captured in the [Outcome].
func (c *Client) Probe(ctx context.Context, r Request, headers map[string]string) Outcome {
	start := time.Now()
	out := Outcome{Request: r, CheckedAt: start}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, nil)
	if err != nil {
		out.Status = StatusFailed
		out.Error = fmt.Errorf("failed to create request: %w", err)
		out.Latency = time.Since(start)
		return out
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		out.Status = classifyError(ctx, err)
		out.Error = fmt.Errorf("request failed: %w", err)
		out.Latency = time.Since(start)
		return out
	}
	defer func() { _ = resp.Body.Close() }()

	out.StatusCode = resp.StatusCode
	out.Reason = reasonPhrase(resp)

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainSize)); err != nil {
		out.Status = classifyError(ctx, err)
		out.Error = fmt.Errorf("failed to read response body: %w", err)
		out.Latency = time.Since(start)
		return out
	}

	out.Status = StatusCompleted
	out.Latency = time.Since(start)
	return out
}

// Close releases the client's pooled connections.
//
// Close runs its teardown only once; further calls are no-ops. Safe on a
// nil receiver.
func (c *Client) Close() {
	if c == nil || c.transport == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.transport.CloseIdleConnections()
		c.logger.Debug("http client closed")
	})
}

// dialTLS dials a TLS connection whose certificate check goes through
// verifyConnection instead of the built-in verifier.
func (c *Client) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	raw, err := c.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		// the chain is verified in VerifyConnection
		InsecureSkipVerify: true,
		VerifyConnection:   c.verifyConnection(host),
		MinVersion:         tls.VersionTLS12,
	}
	if net.ParseIP(host) == nil {
		cfg.ServerName = host
	}

	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return conn, nil
}

// verifyConnection returns a VerifyConnection callback for host.
func (c *Client) verifyConnection(host string) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		err := verifyChain(cs.PeerCertificates, host, c.rootCAs)
		if err == nil {
			return nil
		}

		c.logger.Warn("certificate validation failed", "host", host, "error", err.Error())
		if c.allowInsecure != nil && c.allowInsecure() {
			c.logger.Warn("accepting invalid certificate", "host", host)
			return nil
		}
		return err
	}
}

// verifyChain verifies the leaf certificate against roots and host.
// A nil roots pool means the system pool.
func verifyChain(certs []*x509.Certificate, host string, roots *x509.CertPool) error {
	if len(certs) == 0 {
		return errors.New("server presented no certificates")
	}

	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}

	_, err := certs[0].Verify(x509.VerifyOptions{
		DNSName:       host,
		Intermediates: intermediates,
		Roots:         roots,
	})
	return err
}

// classifyError maps a request error to a [Status].
func classifyError(ctx context.Context, err error) Status {
	if errors.Is(ctx.Err(), context.Canceled) {
		return StatusCancelled
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return StatusTimedOut
	}
	return StatusFailed
}

// reasonPhrase extracts "Not Found" from "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
