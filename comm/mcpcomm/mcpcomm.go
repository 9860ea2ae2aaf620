package mcpcomm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/agentlink/comm"
	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/logging"
)

// DefaultListen is the inbound listen address used when none is configured.
const DefaultListen = "127.0.0.1:0"

// protocolVersion identifies this communicator to MCP peers.
const protocolVersion = "0.1.0"

// Register installs the MCP communicator factory under comm.TypeMCP.
func Register(r *comm.Registry) {
	r.Register(comm.TypeMCP, Factory())
}

// Factory returns a comm.Factory building MCP communicators from an agent
// configuration: the "listen" communicator option selects the inbound SSE
// address and the service URL map resolves outbound targets.
func Factory() comm.Factory {
	return func(cfg core.AgentConfig) (core.Communicator, error) {
		listen := DefaultListen
		if l, ok := cfg.CommunicatorOptions["listen"]; ok {
			s, ok := l.(string)
			if !ok {
				return nil, &core.ConfigurationError{Reason: fmt.Sprintf("mcp communicator option %q must be a string", "listen")}
			}
			listen = s
		}

		return New(cfg.Name, func(o *Options) {
			o.Listen = listen
			o.ServiceURLs = cfg.CloneServiceURLs()
		}), nil
	}
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Listen is the inbound SSE listen address. Empty disables the inbound
	// MCP server (send-only agent).
	Listen string
	// ServiceURLs maps target service names to SSE endpoint URLs.
	ServiceURLs map[string]string
	// Logger receives transport diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Communicator is the MCP-over-SSE transport. Handlers become MCP tools on
// the embedded server; outbound requests call the peer's tool of the same
// name. Clients are dialed lazily per target and reused, so an agent never
// pays for connections to services it does not talk to.
type Communicator struct {
	service     string
	listen      string
	serviceURLs map[string]string
	handlers    *comm.HandlerTable
	logger      logging.Logger

	mu         sync.Mutex
	mcpServer  *server.MCPServer
	httpServer *http.Server
	addr       string
	clients    map[string]*client.Client
}

// New constructs an MCP communicator named service with optional overrides.
// The communicator is inert until Start binds the SSE endpoint.
func New(service string, optFns ...func(o *Options)) *Communicator {
	opts := Options{
		Listen: DefaultListen,
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
		service:     service,
		listen:      opts.Listen,
		serviceURLs: serviceURLs,
		handlers:    comm.NewHandlerTable(opts.Logger),
		logger:      opts.Logger,
		clients:     make(map[string]*client.Client),
	}
}

// Addr returns the bound inbound address ("host:port") once Start
// succeeded, or empty for a send-only communicator. The SSE endpoint for
// peers is "http://" + Addr() + "/sse".
func (c *Communicator) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Start binds the inbound SSE endpoint and exposes all registered handlers
// as MCP tools. A send-only communicator (empty listen address) starts
// without a server.
func (c *Communicator) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpServer != nil {
		return errors.New("mcp communicator is already started")
	}

	c.mcpServer = server.NewMCPServer(c.service, protocolVersion)
	for _, method := range c.handlers.Methods() {
		if handler, ok := c.handlers.Get(method); ok {
			c.addTool(method, handler)
		}
	}

	if c.listen == "" {
		return nil
	}

	ln, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("binding mcp listener on %s: %w", c.listen, err)
	}

	sse := server.NewSSEServer(c.mcpServer)
	httpServer := &http.Server{Handler: sse}
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("mcp communicator serve failed", "error", err)
		}
	}()

	c.httpServer = httpServer
	c.addr = ln.Addr().String()

	return nil
}

// Stop shuts the SSE endpoint down and closes all dialed clients. Safe to
// call after a failed or partial Start.
func (c *Communicator) Stop(ctx context.Context) error {
	c.mu.Lock()
	httpServer := c.httpServer
	clients := c.clients
	c.httpServer = nil
	c.mcpServer = nil
	c.addr = ""
	c.clients = make(map[string]*client.Client)
	c.mu.Unlock()

	for target, cli := range clients {
		if err := cli.Close(); err != nil {
			c.logger.Warn("closing mcp client failed", "target", target, "error", err)
		}
	}

	if httpServer == nil {
		return nil
	}

	return httpServer.Shutdown(ctx)
}

// SendRequest calls the target service's MCP tool named method and decodes
// the JSON text content of the result.
func (c *Communicator) SendRequest(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error) {
	cli, err := c.clientFor(ctx, target)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = method
	req.Params.Arguments = params

	result, err := cli.CallTool(ctx, req)
	if err != nil {
		if timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
			return nil, &core.TimeoutError{Target: target, Method: method, Timeout: timeout}
		}
		return nil, fmt.Errorf("request %s to service %q failed: %w", method, target, err)
	}

	return decodeToolResult(target, result)
}

// SendNotification calls the target's tool in the background, dropping the
// result. Only local enqueueing is guaranteed; failures are logged.
func (c *Communicator) SendNotification(ctx context.Context, target, method string, params map[string]any) error {
	if _, ok := c.serviceURLs[target]; !ok {
		return &core.ServiceNotFoundError{Target: target, Known: c.knownServices()}
	}

	go func() {
		if _, err := c.SendRequest(context.WithoutCancel(ctx), target, method, params, 0); err != nil {
			c.logger.Warn("notification delivery failed", "target", target, "method", method, "error", err)
		}
	}()

	return nil
}

// RegisterHandler installs a handler for inbound requests and, when the
// communicator is already started, exposes it immediately as an MCP tool.
// Registering a method twice replaces the prior handler with a warning.
func (c *Communicator) RegisterHandler(method string, handler core.Handler) {
	c.handlers.Register(method, handler)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcpServer != nil {
		c.addTool(method, handler)
	}
}

// addTool exposes one handler as an MCP tool. Must be called with c.mu held
// or during Start before the server is reachable.
func (c *Communicator) addTool(method string, handler core.Handler) {
	tool := mcp.NewTool(method, mcp.WithDescription(fmt.Sprintf("Handler %q of agent %q", method, c.service)))
	c.mcpServer.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := handler(ctx, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		body, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding handler result: %v", err)), nil
		}

		return mcp.NewToolResultText(string(body)), nil
	})
}

// clientFor returns the dialed client for target, dialing and initializing
// it on first use.
func (c *Communicator) clientFor(ctx context.Context, target string) (*client.Client, error) {
	c.mu.Lock()
	if cli, ok := c.clients[target]; ok {
		c.mu.Unlock()
		return cli, nil
	}
	c.mu.Unlock()

	endpoint, ok := c.serviceURLs[target]
	if !ok {
		return nil, &core.ServiceNotFoundError{Target: target, Known: c.knownServices()}
	}

	cli, err := client.NewSSEMCPClient(endpoint)
	if err != nil {
		return nil, &core.ServiceNotFoundError{Target: target, Known: c.knownServices()}
	}
	if err := cli.Start(ctx); err != nil {
		return nil, &core.ServiceNotFoundError{Target: target, Known: c.knownServices()}
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    c.service,
		Version: protocolVersion,
	}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("initializing mcp session with service %q: %w", target, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.clients[target]; ok {
		// Lost the dial race; keep the first session.
		_ = cli.Close()
		return existing, nil
	}
	c.clients[target] = cli

	return cli, nil
}

// decodeToolResult converts an MCP tool result back into a handler result
// map. Error results surface as plain errors; text content is decoded as
// JSON.
func decodeToolResult(target string, result *mcp.CallToolResult) (map[string]any, error) {
	text := ""
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			text = tc.Text
			break
		}
	}

	if result.IsError {
		if text == "" {
			text = "unknown remote error"
		}
		return nil, fmt.Errorf("remote error from service %q: %s", target, text)
	}
	if text == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decoding result from service %q: %w", target, err)
	}

	return out, nil
}

func (c *Communicator) knownServices() []string {
	known := make([]string, 0, len(c.serviceURLs))
	for name := range c.serviceURLs {
		known = append(known, name)
	}
	return known
}
