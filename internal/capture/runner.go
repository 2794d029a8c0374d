// Package capture pulls clips from the camera's RTSP stream with ffmpeg.
package capture

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("capture")

// Runner executes the capture tool with the given arguments and blocks until it exits
type Runner interface {
	Run(ctx context.Context, args []string) error
	Check(ctx context.Context) error
	String() string
}

// StreamURL builds the RTSP URL of the camera's main stream
func StreamURL(user, password, host string, port int) string {
	u := url.URL{
		Scheme: "rtsp",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/h264Preview_01_main",
	}
	return u.String()
}

// redact hides the credentials of an RTSP URL in log lines
func redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		if u, err := url.Parse(a); err == nil && u.User != nil {
			u.User = url.User(u.User.Username())
			out[i] = u.String()
		}
	}
	return out
}

func describe(r Runner, args []string) string {
	return fmt.Sprintf("%s %v", r, redact(args))
}
