// Package slobs drives Streamlabs Desktop scenes through its JSON-RPC
// remote-control websocket.
package slobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const scenesService = "ScenesService"

var ErrNotConnected = errors.New("streamlabs not connected")

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int64     `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Resource string `json:"resource"`
	Args     []any  `json:"args,omitempty"`
}

type rpcResponse struct {
	ID     *int64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type sceneModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Client struct {
	addr    string
	token   string
	timeout time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	nextID    int64
	connected atomic.Bool
}

// New targets ws://addr/api/websocket.
func New(addr, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Client{addr: addr, token: token, timeout: timeout}
}

func (c *Client) Name() string { return "Streamlabs" }

func (c *Client) Connected() bool { return c.connected.Load() }

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, "ws://"+c.addr+"/api/websocket", nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	c.conn = conn

	if c.token != "" {
		if err := c.callLocked(ctx, "auth", rpcParams{Resource: "TcpServerService", Args: []any{c.token}}, nil); err != nil {
			c.dropLocked()
			return fmt.Errorf("authenticating: %w", err)
		}
	}
	c.connected.Store(true)
	return nil
}

func (c *Client) CurrentScene(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var scene sceneModel
	if err := c.callLocked(ctx, "activeScene", rpcParams{Resource: scenesService}, &scene); err != nil {
		return "", err
	}
	return scene.Name, nil
}

// SetScene resolves the scene by name, since Streamlabs switches by id.
func (c *Client) SetScene(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var list []sceneModel
	if err := c.callLocked(ctx, "getScenes", rpcParams{Resource: scenesService}, &list); err != nil {
		return err
	}
	for _, s := range list {
		if s.Name == name {
			return c.callLocked(ctx, "makeSceneActive", rpcParams{Resource: scenesService, Args: []any{s.ID}}, nil)
		}
	}
	return fmt.Errorf("scene %q not found", name)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

func (c *Client) callLocked(ctx context.Context, method string, params rpcParams, out any) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.nextID++
	id := c.nextID
	if err := wsjson.Write(ctx, c.conn, rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		c.dropLocked()
		return fmt.Errorf("sending %s: %w", method, err)
	}
	for {
		var resp rpcResponse
		if err := wsjson.Read(ctx, c.conn, &resp); err != nil {
			c.dropLocked()
			return fmt.Errorf("awaiting %s: %w", method, err)
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("%s failed (code %d): %s", method, resp.Error.Code, resp.Error.Message)
		}
		if out != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("decoding %s result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *Client) dropLocked() error {
	c.connected.Store(false)
	if c.conn == nil {
		return nil
	}
	err := c.conn.CloseNow()
	c.conn = nil
	return err
}
