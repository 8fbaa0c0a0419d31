// Package obsws is a minimal OBS websocket (protocol v5) client that can
// read and set the program scene.
package obsws

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opEvent           = 5
	opRequest         = 6
	opRequestResponse = 7

	rpcVersion  = 1
	subprotocol = "obswebsocket.json"
)

var ErrNotConnected = errors.New("obs websocket not connected")

type message struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type outgoing struct {
	Op int `json:"op"`
	D  any `json:"d"`
}

type hello struct {
	RPCVersion     int `json:"rpcVersion"`
	Authentication *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type identify struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

type request struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type response struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

type Client struct {
	addr     string
	password string
	timeout  time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
}

// New targets ws://addr. timeout bounds every dial and request.
func New(addr, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Client{addr: addr, password: password, timeout: timeout}
}

func (c *Client) Name() string { return "OBS" }

func (c *Client) Connected() bool { return c.connected.Load() }

// Connect dials and completes the Hello/Identify handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+c.addr, &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
	})
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	if err := c.handshake(ctx, conn); err != nil {
		conn.CloseNow()
		return err
	}
	c.conn = conn
	c.connected.Store(true)
	return nil
}

func (c *Client) handshake(ctx context.Context, conn *websocket.Conn) error {
	var msg message
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		return fmt.Errorf("reading hello: %w", err)
	}
	if msg.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", msg.Op)
	}
	var h hello
	if err := json.Unmarshal(msg.D, &h); err != nil {
		return fmt.Errorf("decoding hello: %w", err)
	}

	id := identify{RPCVersion: rpcVersion}
	if h.Authentication != nil {
		id.Authentication = AuthResponse(c.password, h.Authentication.Salt, h.Authentication.Challenge)
	}
	if err := wsjson.Write(ctx, conn, outgoing{Op: opIdentify, D: id}); err != nil {
		return fmt.Errorf("sending identify: %w", err)
	}

	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		return fmt.Errorf("reading identified: %w", err)
	}
	if msg.Op != opIdentified {
		return fmt.Errorf("expected identified, got op %d", msg.Op)
	}
	return nil
}

// AuthResponse computes the v5 authentication string.
func AuthResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	auth := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}

func (c *Client) CurrentScene(ctx context.Context) (string, error) {
	var out struct {
		SceneName               string `json:"sceneName"`
		CurrentProgramSceneName string `json:"currentProgramSceneName"`
	}
	if err := c.call(ctx, "GetCurrentProgramScene", nil, &out); err != nil {
		return "", err
	}
	if out.SceneName != "" {
		return out.SceneName, nil
	}
	return out.CurrentProgramSceneName, nil
}

func (c *Client) SetScene(ctx context.Context, name string) error {
	data := map[string]string{"sceneName": name}
	return c.call(ctx, "SetCurrentProgramScene", data, nil)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

// call sends one request and waits for its response, skipping events and
// unrelated responses. Any transport error drops the connection.
func (c *Client) call(ctx context.Context, requestType string, data any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id := uuid.NewString()
	req := outgoing{Op: opRequest, D: request{RequestType: requestType, RequestID: id, RequestData: data}}
	if err := wsjson.Write(ctx, c.conn, req); err != nil {
		c.dropLocked()
		return fmt.Errorf("sending %s: %w", requestType, err)
	}

	for {
		var msg message
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			c.dropLocked()
			return fmt.Errorf("awaiting %s: %w", requestType, err)
		}
		if msg.Op != opRequestResponse {
			continue
		}
		var resp response
		if err := json.Unmarshal(msg.D, &resp); err != nil {
			return fmt.Errorf("decoding %s response: %w", requestType, err)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return fmt.Errorf("%s failed (code %d): %s", requestType, resp.RequestStatus.Code, resp.RequestStatus.Comment)
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("decoding %s data: %w", requestType, err)
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
