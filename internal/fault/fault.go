// Package fault classifies failures from the camera, the capture tool and the chat surface
// so callers can tell "camera unreachable" apart from "capture tool missing".
package fault

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Kind is the classification of a failure
type Kind int

const (
	// KindUnknown indicates an unclassified error
	KindUnknown Kind = iota
	// KindNetwork indicates the camera could not be reached
	KindNetwork
	// KindAuth indicates the camera rejected the credentials or token
	KindAuth
	// KindCamera indicates a non-success status or camera error code
	KindCamera
	// KindDecode indicates a response that could not be parsed
	KindDecode
	// KindToolMissing indicates the capture tool could not be launched
	KindToolMissing
	// KindProcess indicates the capture tool exited with an error
	KindProcess
	// KindChat indicates the chat surface rejected a send or delete
	KindChat
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindCamera:
		return "camera"
	case KindDecode:
		return "decode"
	case KindToolMissing:
		return "tool_missing"
	case KindProcess:
		return "process"
	case KindChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Error is a classified failure of a single operation
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err as a failure of the given kind
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Transport classifies an error returned by an HTTP round trip
func Transport(op string, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return New(op, KindUnknown, err)
	}
	return New(op, KindNetwork, err)
}

// Launch classifies an error returned while starting a subprocess
func Launch(op string, err error) *Error {
	if errors.Is(err, exec.ErrNotFound) {
		return New(op, KindToolMissing, err)
	}
	var pathErr *exec.Error
	if errors.As(err, &pathErr) {
		return New(op, KindToolMissing, err)
	}
	return New(op, KindProcess, err)
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Describe returns a short user-facing explanation for a failure, in the chat's language
func Describe(err error) string {
	switch KindOf(err) {
	case KindNetwork:
		return "la cámara no responde"
	case KindAuth:
		return "la cámara rechazó el inicio de sesión"
	case KindCamera:
		return "la cámara devolvió un error"
	case KindDecode:
		return "respuesta inesperada de la cámara"
	case KindToolMissing:
		return "ffmpeg no está instalado"
	case KindProcess:
		return "ffmpeg terminó con error"
	case KindChat:
		return "Telegram rechazó el mensaje"
	default:
		return "error desconocido"
	}
}
