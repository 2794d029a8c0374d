package camera

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/marcosistoocommon/ReoCamara/internal/fault"
	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

var log = logging.MustGetLogger("camera")

// Config holds the camera endpoints and credentials
type Config struct {
	ControlURL  string // e.g. http://10.0.0.5
	SnapshotURL string // e.g. https://10.0.0.5
	User        string
	Password    string
	InsecureTLS bool
	Timeout     time.Duration
}

// Client talks to the camera's CGI API
type Client struct {
	controlURL  string
	snapshotURL string
	user        string
	password    string
	http        *http.Client
}

// NewClient creates a new camera client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SnapshotURL == "" {
		cfg.SnapshotURL = cfg.ControlURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		// The camera ships a self-signed certificate.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		controlURL:  strings.TrimRight(cfg.ControlURL, "/"),
		snapshotURL: strings.TrimRight(cfg.SnapshotURL, "/"),
		user:        cfg.User,
		password:    cfg.Password,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// Login opens a session and returns the token name
func (c *Client) Login(ctx context.Context) (string, error) {
	body := []loginRequest{{
		Cmd: "Login",
		Param: loginParam{User: loginUser{
			UserName: c.user,
			Password: c.password,
		}},
	}}

	var resp apiResponse[loginValue]
	if err := c.call(ctx, "login", url.Values{"cmd": {"Login"}}, body, &resp); err != nil {
		if fault.KindOf(err) == fault.KindCamera {
			return "", fault.New("login", fault.KindAuth, err)
		}
		return "", err
	}

	if resp.Value.Token.Name == "" {
		return "", fault.New("login", fault.KindDecode, fmt.Errorf("response carries no token"))
	}

	log.Debugf("Logged in as %s (lease %ds)", c.user, resp.Value.Token.LeaseTime)
	return resp.Value.Token.Name, nil
}

// Move sends the camera to a stored preset. It returns as soon as the camera
// accepts the command; it does not wait for the camera to arrive.
func (c *Client) Move(ctx context.Context, token string, presetID, speed int) error {
	body := []ptzRequest{{
		Cmd: "PtzCtrl",
		Param: ptzParam{
			Channel: 0,
			Op:      "ToPos",
			ID:      presetID,
			Speed:   speed,
		},
	}}

	var resp apiResponse[struct{}]
	query := url.Values{"cmd": {"PtzCtrl"}, "token": {token}}
	return c.call(ctx, "move", query, body, &resp)
}

// Presets lists the positions stored on the camera
func (c *Client) Presets(ctx context.Context, token string) ([]models.Preset, error) {
	body := []presetRequest{{
		Cmd:    "GetPtzPreset",
		Action: 1,
		Param:  channelParam{Channel: 0},
	}}

	var resp apiResponse[presetValue]
	query := url.Values{"cmd": {"GetPtzPreset"}, "token": {token}}
	if err := c.call(ctx, "presets", query, body, &resp); err != nil {
		return nil, err
	}

	presets := make([]models.Preset, 0, len(resp.Value.PtzPreset))
	for _, p := range resp.Value.PtzPreset {
		presets = append(presets, models.Preset{ID: p.ID, Name: p.Name, Enable: p.Enable})
	}
	return presets, nil
}

// Snapshot fetches a single still image from the camera
func (c *Client) Snapshot(ctx context.Context, token string) ([]byte, error) {
	query := url.Values{
		"cmd":     {"Snap"},
		"channel": {"0"},
		"rs":      {nonce()},
		"token":   {token},
	}
	endpoint := c.snapshotURL + "/cgi-bin/api.cgi?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fault.New("snapshot", fault.KindUnknown, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fault.Transport("snapshot", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Transport("snapshot", err)
	}
	if err := statusError("snapshot", resp.StatusCode); err != nil {
		return nil, err
	}

	// Failures come back as a JSON envelope with a 200 status.
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") || bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var env []apiResponse[struct{}]
		if err := sonic.Unmarshal(data, &env); err == nil && len(env) > 0 {
			if err := envelopeError("snapshot", env[0].Code, env[0].Error); err != nil {
				return nil, err
			}
		}
		return nil, fault.New("snapshot", fault.KindDecode, fmt.Errorf("expected image, got %q", resp.Header.Get("Content-Type")))
	}

	if len(data) == 0 {
		return nil, fault.New("snapshot", fault.KindCamera, fmt.Errorf("empty image"))
	}
	return data, nil
}

// call posts a command envelope to /api.cgi and decodes the first response entry
func (c *Client) call(ctx context.Context, op string, query url.Values, body interface{}, out interface{}) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return fault.New(op, fault.KindUnknown, fmt.Errorf("failed to marshal request: %w", err))
	}

	endpoint := c.controlURL + "/api.cgi?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fault.New(op, fault.KindUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fault.Transport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.Transport(op, err)
	}
	if err := statusError(op, resp.StatusCode); err != nil {
		return err
	}

	var env []json.RawMessage
	if err := sonic.Unmarshal(data, &env); err != nil || len(env) == 0 {
		return fault.New(op, fault.KindDecode, fmt.Errorf("invalid response %q", truncate(data)))
	}

	var head apiResponse[struct{}]
	if err := sonic.Unmarshal(env[0], &head); err != nil {
		return fault.New(op, fault.KindDecode, err)
	}
	if err := envelopeError(op, head.Code, head.Error); err != nil {
		return err
	}

	if err := sonic.Unmarshal(env[0], out); err != nil {
		return fault.New(op, fault.KindDecode, err)
	}
	return nil
}

func statusError(op string, status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fault.New(op, fault.KindAuth, fmt.Errorf("status %d", status))
	case status != http.StatusOK:
		return fault.New(op, fault.KindCamera, fmt.Errorf("status %d", status))
	}
	return nil
}

func envelopeError(op string, code int, apiErr *apiError) error {
	if code == 0 {
		return nil
	}
	if apiErr == nil {
		return fault.New(op, fault.KindCamera, fmt.Errorf("code %d", code))
	}
	if apiErr.RspCode == rspCodeLoginRequired {
		return fault.New(op, fault.KindAuth, fmt.Errorf("%s (rspCode %d)", apiErr.Detail, apiErr.RspCode))
	}
	return fault.New(op, fault.KindCamera, fmt.Errorf("%s (rspCode %d)", apiErr.Detail, apiErr.RspCode))
}

// nonce returns the random cache-buster the snapshot endpoint expects
func nonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func truncate(data []byte) string {
	const limit = 120
	if len(data) > limit {
		return string(data[:limit]) + "..." + strconv.Itoa(len(data)-limit) + " more bytes"
	}
	return string(data)
}
