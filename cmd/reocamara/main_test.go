package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	assert.NoError(t, InitLogger("DEBUG"))
	assert.Error(t, InitLogger("LOUD"))
}

func TestEffectiveLogLevel(t *testing.T) {
	logLevel = ""
	assert.Equal(t, "INFO", effectiveLogLevel("INFO"))

	logLevel = "DEBUG"
	defer func() { logLevel = "" }()
	assert.Equal(t, "DEBUG", effectiveLogLevel("INFO"))
}

func TestPresetsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cmd") {
		case "Login":
			w.Write([]byte(`[{"cmd":"Login","code":0,"value":{"Token":{"leaseTime":3600,"name":"tok"}}}]`))
		case "GetPtzPreset":
			assert.Equal(t, "tok", r.URL.Query().Get("token"))
			w.Write([]byte(`[{"cmd":"GetPtzPreset","code":0,"value":{"PtzPreset":[
				{"channel":0,"enable":1,"id":0,"name":"puerta"},
				{"channel":0,"enable":0,"id":1,"name":"pos1"},
				{"channel":0,"enable":1,"id":2,"name":"nevera"}]}}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	t.Setenv("CAMERA_IP", strings.TrimPrefix(srv.URL, "http://"))
	t.Setenv("USERBOT", "admin")
	t.Setenv("PASSWORD", "secret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"presets", "--log-level", "ERROR"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "puerta")
	assert.Contains(t, lines[2], "nevera")
	assert.NotContains(t, out.String(), "pos1")
}
