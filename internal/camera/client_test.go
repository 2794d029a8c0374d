package camera

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosistoocommon/ReoCamara/internal/fault"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ControlURL: srv.URL,
		User:       "admin",
		Password:   "secret",
	})
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.cgi", r.URL.Path)
		assert.Equal(t, "Login", r.URL.Query().Get("cmd"))

		body, _ := io.ReadAll(r.Body)
		var req []loginRequest
		require.NoError(t, sonic.Unmarshal(body, &req))
		require.Len(t, req, 1)
		assert.Equal(t, "admin", req[0].Param.User.UserName)
		assert.Equal(t, "secret", req[0].Param.User.Password)

		w.Write([]byte(`[{"cmd":"Login","code":0,"value":{"Token":{"leaseTime":3600,"name":"abc123"}}}]`))
	})

	token, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestLoginRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"cmd":"Login","code":1,"error":{"rspCode":-7,"detail":"login failed"}}]`))
	})

	_, err := client.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, fault.KindAuth, fault.KindOf(err))
}

func TestLoginHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, fault.KindAuth, fault.KindOf(err))
}

func TestLoginUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(Config{ControlURL: srv.URL})

	_, err := client.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, fault.KindNetwork, fault.KindOf(err))
}

func TestMove(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PtzCtrl", r.URL.Query().Get("cmd"))
		assert.Equal(t, "tok", r.URL.Query().Get("token"))

		body, _ := io.ReadAll(r.Body)
		var req []ptzRequest
		require.NoError(t, sonic.Unmarshal(body, &req))
		require.Len(t, req, 1)
		assert.Equal(t, ptzParam{Channel: 0, Op: "ToPos", ID: 2, Speed: 1}, req[0].Param)

		w.Write([]byte(`[{"cmd":"PtzCtrl","code":0,"value":{"rspCode":200}}]`))
	})

	require.NoError(t, client.Move(context.Background(), "tok", 2, 1))
}

func TestMoveTokenExpired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"cmd":"PtzCtrl","code":1,"error":{"rspCode":-6,"detail":"please login first"}}]`))
	})

	err := client.Move(context.Background(), "stale", 0, 1)
	require.Error(t, err)
	assert.Equal(t, fault.KindAuth, fault.KindOf(err))
}

func TestMoveGarbage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>nope</html>`))
	})

	err := client.Move(context.Background(), "tok", 0, 1)
	require.Error(t, err)
	assert.Equal(t, fault.KindDecode, fault.KindOf(err))
}

func TestPresets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GetPtzPreset", r.URL.Query().Get("cmd"))
		w.Write([]byte(`[{"cmd":"GetPtzPreset","code":0,"value":{"PtzPreset":[
			{"channel":0,"enable":1,"id":0,"name":"door"},
			{"channel":0,"enable":1,"id":1,"name":"sofa"}]}}]`))
	})

	presets, err := client.Presets(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "sofa", presets[1].Name)
	assert.Equal(t, 1, presets[1].ID)
}

func TestSnapshot(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/api.cgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Snap", q.Get("cmd"))
		assert.Equal(t, "0", q.Get("channel"))
		assert.Equal(t, "tok", q.Get("token"))
		assert.Len(t, q.Get("rs"), 16)

		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpeg)
	})

	data, err := client.Snapshot(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, jpeg, data)
}

func TestSnapshotErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"cmd":"Snap","code":1,"error":{"rspCode":-6,"detail":"please login first"}}]`))
	})

	_, err := client.Snapshot(context.Background(), "stale")
	require.Error(t, err)
	assert.Equal(t, fault.KindAuth, fault.KindOf(err))
}

func TestSnapshotNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Snapshot(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, fault.KindCamera, fault.KindOf(err))
}
