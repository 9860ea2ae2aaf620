package httpcomm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/agentlink/comm"
	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/internal/util"
	"github.com/hupe1980/agentlink/logging"
)

// DefaultListen is the inbound listen address used when none is configured.
// Port 0 lets the kernel pick a free port; see Addr for the bound address.
const DefaultListen = "127.0.0.1:0"

// Register installs the HTTP communicator factory under comm.TypeHTTP.
func Register(r *comm.Registry) {
	r.Register(comm.TypeHTTP, Factory())
}

// Factory returns a comm.Factory building HTTP communicators from an agent
// configuration: the "listen" communicator option selects the inbound
// address and the service URL map resolves outbound targets.
func Factory() comm.Factory {
	return func(cfg core.AgentConfig) (core.Communicator, error) {
		listen := DefaultListen
		if l, ok := cfg.CommunicatorOptions["listen"]; ok {
			s, ok := l.(string)
			if !ok {
				return nil, &core.ConfigurationError{Reason: fmt.Sprintf("http communicator option %q must be a string", "listen")}
			}
			listen = s
		}

		return New(func(o *Options) {
			o.Listen = listen
			o.ServiceURLs = cfg.CloneServiceURLs()
		}), nil
	}
}

// rpcEnvelope is the wire format for requests and notifications. A
// notification is an envelope without an id.
type rpcEnvelope struct {
	ID     string         `json:"id,omitempty"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// rpcResponse is the wire format for results.
type rpcResponse struct {
	ID     string         `json:"id,omitempty"`
	Result map[string]any `json:"result,omitempty"`
	Error  *rpcError      `json:"error,omitempty"`
}

type rpcError struct {
	Message string `json:"message"`
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Listen is the inbound listen address. Empty disables the inbound
	// listener (send-only agent).
	Listen string
	// ServiceURLs maps target service names to base URLs.
	ServiceURLs map[string]string
	// Client performs outbound requests. Defaults to a plain http.Client;
	// per-request timeouts are applied via context.
	Client *http.Client
	// Logger receives transport diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Communicator is the HTTP transport. Outbound requests POST a JSON envelope
// to the target's /rpc endpoint and wait for the response envelope;
// notifications POST to /notify and only guarantee local enqueueing.
// Concurrent use by multiple goroutines of the same agent is safe.
type Communicator struct {
	listen      string
	serviceURLs map[string]string
	handlers    *comm.HandlerTable
	client      *http.Client
	logger      logging.Logger

	mu     sync.Mutex
	server *http.Server
	addr   string
}

// New constructs an HTTP communicator with optional overrides. The
// communicator is inert until Start binds the listener.
func New(optFns ...func(o *Options)) *Communicator {
	opts := Options{
		Listen: DefaultListen,
		Client: &http.Client{},
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	serviceURLs := make(map[string]string, len(opts.ServiceURLs))
	for k, v := range opts.ServiceURLs {
		serviceURLs[k] = v
	}

	return &Communicator{
		listen:      opts.Listen,
		serviceURLs: serviceURLs,
		handlers:    comm.NewHandlerTable(opts.Logger),
		client:      opts.Client,
		logger:      opts.Logger,
	}
}

// Addr returns the bound inbound address ("host:port") once Start
// succeeded, or empty for a send-only communicator.
func (c *Communicator) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Start binds the inbound listener and begins serving. A send-only
// communicator (empty listen address) starts without a listener.
func (c *Communicator) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.server != nil {
		return errors.New("http communicator is already started")
	}
	if c.listen == "" {
		return nil
	}

	ln, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("binding http listener on %s: %w", c.listen, err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/rpc", c.handleRPC)
	engine.POST("/notify", c.handleNotify)

	server := &http.Server{Handler: engine}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("http communicator serve failed", "error", err)
		}
	}()

	c.server = server
	c.addr = ln.Addr().String()

	return nil
}

// Stop shuts the inbound listener down. Safe to call after a failed or
// partial Start.
func (c *Communicator) Stop(ctx context.Context) error {
	c.mu.Lock()
	server := c.server
	c.server = nil
	c.addr = ""
	c.mu.Unlock()

	if server == nil {
		return nil
	}

	return server.Shutdown(ctx)
}

// SendRequest performs a request/response exchange with the target service.
func (c *Communicator) SendRequest(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error) {
	base, ok := c.serviceURLs[target]
	if !ok {
		return nil, &core.ServiceNotFoundError{Target: target, Known: c.knownServices()}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.post(ctx, base+"/rpc", rpcEnvelope{ID: util.NewID(), Method: method, Params: params})
	c.logger.Debug("http request completed", "target", target, "method", method, "duration", time.Since(start), "success", err == nil)
	if err != nil {
		return nil, c.classify(err, target, method, timeout)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("service %q has no handler for method %q", target, method)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response from %q: %w", target, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("remote error from service %q: %s", target, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from service %q", resp.StatusCode, target)
	}

	return out.Result, nil
}

// SendNotification enqueues a fire-and-forget message for the target
// service. Delivery happens in the background; failures are logged.
func (c *Communicator) SendNotification(ctx context.Context, target, method string, params map[string]any) error {
	base, ok := c.serviceURLs[target]
	if !ok {
		return &core.ServiceNotFoundError{Target: target, Known: c.knownServices()}
	}

	env := rpcEnvelope{Method: method, Params: params}
	go func() {
		resp, err := c.post(context.WithoutCancel(ctx), base+"/notify", env)
		if err != nil {
			c.logger.Warn("notification delivery failed", "target", target, "method", method, "error", err)
			return
		}
		_ = resp.Body.Close()
	}()

	return nil
}

// RegisterHandler installs a handler for inbound requests. Registering a
// method twice replaces the prior handler with a warning.
func (c *Communicator) RegisterHandler(method string, handler core.Handler) {
	c.handlers.Register(method, handler)
}

func (c *Communicator) post(ctx context.Context, endpoint string, env rpcEnvelope) (*http.Response, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.client.Do(req)
}

// classify maps transport failures onto the shared error taxonomy: expiry of
// the per-request timeout becomes *core.TimeoutError, an unreachable target
// becomes *core.ServiceNotFoundError, anything else passes through wrapped.
// Cancellation-class errors owned by the caller's context (Canceled, or a
// deadline that is not the per-request timeout) pass through unchanged so
// teardown paths can suppress them with errors.Is.
func (c *Communicator) classify(err error, target, method string, timeout time.Duration) error {
	var uerr *url.Error
	timedOut := errors.Is(err, context.DeadlineExceeded)
	if errors.As(err, &uerr) && uerr.Timeout() {
		timedOut = true
	}
	if timedOut && timeout > 0 {
		return &core.TimeoutError{Target: target, Method: method, Timeout: timeout}
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	if errors.As(err, &uerr) {
		return &core.ServiceNotFoundError{Target: target}
	}

	return fmt.Errorf("request %s to service %q failed: %w", method, target, err)
}

func (c *Communicator) knownServices() []string {
	known := make([]string, 0, len(c.serviceURLs))
	for name := range c.serviceURLs {
		known = append(known, name)
	}
	return known
}

func (c *Communicator) handleRPC(gc *gin.Context) {
	var env rpcEnvelope
	if err := gc.ShouldBindJSON(&env); err != nil {
		gc.JSON(http.StatusBadRequest, rpcResponse{Error: &rpcError{Message: "malformed request envelope"}})
		return
	}

	handler, ok := c.handlers.Get(env.Method)
	if !ok {
		gc.JSON(http.StatusNotFound, rpcResponse{ID: env.ID, Error: &rpcError{Message: fmt.Sprintf("no handler for method %q", env.Method)}})
		return
	}

	result, err := handler(gc.Request.Context(), env.Params)
	if err != nil {
		gc.JSON(http.StatusInternalServerError, rpcResponse{ID: env.ID, Error: &rpcError{Message: err.Error()}})
		return
	}

	gc.JSON(http.StatusOK, rpcResponse{ID: env.ID, Result: result})
}

func (c *Communicator) handleNotify(gc *gin.Context) {
	var env rpcEnvelope
	if err := gc.ShouldBindJSON(&env); err != nil {
		gc.JSON(http.StatusBadRequest, rpcResponse{Error: &rpcError{Message: "malformed notification envelope"}})
		return
	}

	handler, ok := c.handlers.Get(env.Method)
	if !ok {
		gc.JSON(http.StatusNotFound, rpcResponse{Error: &rpcError{Message: fmt.Sprintf("no handler for method %q", env.Method)}})
		return
	}

	go func() {
		if _, err := handler(context.Background(), env.Params); err != nil {
			c.logger.Warn("notification handler failed", "method", env.Method, "error", err)
		}
	}()

	gc.Status(http.StatusAccepted)
}
