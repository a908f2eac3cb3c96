package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const remoteControlPath = "/api/v2/channels/samsung.remote.control"

// ErrUnauthorized means the TV rejected the stored pairing token. The
// caller should clear the token and re-pair.
var ErrUnauthorized = errors.New("tv rejected the pairing token")

// Remote drives the television's WebSocket remote-control channel.
// TVs expose the channel over wss on port 8002 with a self-signed
// certificate, so TLS verification is skipped.
type Remote struct {
	appName        string
	connectTimeout time.Duration
	pairingTimeout time.Duration

	// overridden in tests against a fake TV
	scheme string
	port   string
}

// NewRemote creates a driver identifying itself to TVs as appName.
func NewRemote(appName string, connectTimeout, pairingTimeout time.Duration) *Remote {
	return &Remote{
		appName:        appName,
		connectTimeout: connectTimeout,
		pairingTimeout: pairingTimeout,
		scheme:         "wss",
		port:           "8002",
	}
}

// channelMessage is the envelope of every frame the TV sends on the
// remote-control channel.
type channelMessage struct {
	Event string `json:"event"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
	Message string `json:"message"`
}

// clickFrame is the one frame we write per key press.
type clickFrame struct {
	Method string      `json:"method"`
	Params clickParams `json:"params"`
}

type clickParams struct {
	Cmd          string `json:"Cmd"`
	DataOfCmd    string `json:"DataOfCmd"`
	Option       string `json:"Option"`
	TypeOfRemote string `json:"TypeOfRemote"`
}

func (r *Remote) channelURL(ip, token string) string {
	query := url.Values{}
	query.Set("name", base64.StdEncoding.EncodeToString([]byte(r.appName)))
	if token != "" {
		query.Set("token", token)
	}
	u := url.URL{
		Scheme:   r.scheme,
		Host:     net.JoinHostPort(ip, r.port),
		Path:     remoteControlPath,
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (r *Remote) dial(ctx context.Context, rawURL string, timeout time.Duration) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true},
	}
	conn, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Now().Add(timeout))
	return conn, nil
}

// readChannelEvent reads the first frame after connecting. The channel
// is usable only after ms.channel.connect.
func readChannelEvent(conn *websocket.Conn) (channelMessage, error) {
	var msg channelMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return msg, fmt.Errorf("read channel event: %w", err)
	}
	return msg, nil
}

// SendKey connects with the stored token and sends one key press.
func (r *Remote) SendKey(ctx context.Context, ip, token, keyCode string) error {
	conn, err := r.dial(ctx, r.channelURL(ip, token), r.connectTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	msg, err := readChannelEvent(conn)
	if err != nil {
		return err
	}
	if msg.Event != "ms.channel.connect" {
		if msg.Event == "ms.channel.unauthorized" {
			return ErrUnauthorized
		}
		if msg.Message != "" {
			return errors.New(msg.Message)
		}
		return fmt.Errorf("unexpected channel event %q", msg.Event)
	}

	frame := clickFrame{
		Method: "ms.remote.control",
		Params: clickParams{
			Cmd:          "Click",
			DataOfCmd:    keyCode,
			Option:       "false",
			TypeOfRemote: "SendRemoteKey",
		},
	}
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send key %s: %w", keyCode, err)
	}
	return nil
}

// Check connects with the stored token and verifies the channel opens,
// without pressing any key. Used by the debug endpoint.
func (r *Remote) Check(ctx context.Context, ip, token string) error {
	conn, err := r.dial(ctx, r.channelURL(ip, token), r.connectTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	msg, err := readChannelEvent(conn)
	if err != nil {
		return err
	}
	if msg.Event != "ms.channel.connect" {
		if msg.Event == "ms.channel.unauthorized" {
			return ErrUnauthorized
		}
		return fmt.Errorf("unexpected channel event %q", msg.Event)
	}
	return nil
}

// Pair connects without a token and waits for the TV to hand one back
// after on-screen approval. Uses the long pairing timeout since the
// user has to pick up a physical remote.
func (r *Remote) Pair(ctx context.Context, ip string) (string, error) {
	conn, err := r.dial(ctx, r.channelURL(ip, ""), r.pairingTimeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	msg, err := readChannelEvent(conn)
	if err != nil {
		return "", err
	}
	if msg.Data.Token == "" {
		return "", fmt.Errorf("pairing not approved (event %q)", msg.Event)
	}
	return msg.Data.Token, nil
}
