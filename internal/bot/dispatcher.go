package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcosistoocommon/ReoCamara/internal/delivery"
	"github.com/marcosistoocommon/ReoCamara/internal/fault"
	"github.com/marcosistoocommon/ReoCamara/internal/ratelimit"
	"github.com/marcosistoocommon/ReoCamara/internal/route"
	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

// Built-in commands
const (
	CommandImage = "getImage"
	CommandVideo = "getVideo"
)

// DefaultClipDuration is the length of a /getVideo clip
const DefaultClipDuration = 10 * time.Second

const (
	helpHeader    = "Comando no reconocido. Por favor, utiliza uno de los siguientes comandos disponibles:\n\n"
	imageHelp     = "Obtiene una imagen del punto inicial de la cámara."
	videoHelp     = "Obtiene un video del punto inicial de la cámara."
	tokenError    = "Error al obtener el token de la cámara."
	snapshotError = "Error al obtener la imagen de la cámara."
	busyText      = "La cámara está ocupada con otra ruta. Inténtalo de nuevo en unos segundos."
	limitedText   = "Has enviado demasiados comandos. Espera un poco antes de volver a intentarlo."
)

// RouteRunner executes a camera route while recording it
type RouteRunner interface {
	Execute(ctx context.Context, r models.Route, outputPath string) (*route.Result, error)
}

// Snapshotter fetches a still image from the camera
type Snapshotter interface {
	Snapshot(ctx context.Context, token string) ([]byte, error)
}

// ArtifactStore allocates and writes artifact files
type ArtifactStore interface {
	New(kind models.MediaKind, label string) *models.Artifact
	Write(a *models.Artifact, data []byte) error
	Release(a *models.Artifact) error
}

// Deliverer sends artifacts with a self-destruct timer
type Deliverer interface {
	SendVideo(ctx context.Context, chatID int64, a *models.Artifact, deleteAfter time.Duration, opts ...delivery.Option) (*models.Delivery, error)
	SendImage(ctx context.Context, chatID int64, a *models.Artifact, deleteAfter time.Duration, opts ...delivery.Option) (*models.Delivery, error)
}

// Replier sends inline text replies
type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
}

// Deps are the collaborators a Dispatcher drives
type Deps struct {
	Executor   RouteRunner
	Tokens     route.TokenSource
	Camera     Snapshotter
	Recorder   route.ClipRecorder
	Artifacts  ArtifactStore
	Deliveries Deliverer
	Replies    Replier
	Limiter    *ratelimit.Limiter // optional
}

// Config holds the dispatcher's command table and timings
type Config struct {
	Routes       []models.Route
	ClipDuration time.Duration
	Lifetime     time.Duration
}

// Dispatcher maps chat commands to camera actions
type Dispatcher struct {
	deps     Deps
	routes   map[string]models.Route
	help     string
	clip     time.Duration
	lifetime time.Duration
}

// NewDispatcher creates a dispatcher for the given routes
func NewDispatcher(deps Deps, cfg Config) *Dispatcher {
	if cfg.ClipDuration <= 0 {
		cfg.ClipDuration = DefaultClipDuration
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = delivery.DefaultLifetime
	}

	routes := make(map[string]models.Route, len(cfg.Routes))
	for _, r := range cfg.Routes {
		routes[strings.ToLower(r.Name)] = r
	}

	return &Dispatcher{
		deps:     deps,
		routes:   routes,
		help:     helpText(cfg.Routes),
		clip:     cfg.ClipDuration,
		lifetime: cfg.Lifetime,
	}
}

// Handle runs a single command to completion, including the self-destruct of
// whatever it delivered. Only chat send failures are returned.
func (d *Dispatcher) Handle(ctx context.Context, chatID int64, command string) error {
	name := strings.ToLower(strings.TrimPrefix(command, "/"))

	if d.deps.Limiter != nil && !d.deps.Limiter.Allow(chatID) {
		log.Warningf("Chat %d is over the command rate limit", chatID)
		return d.reply(ctx, chatID, limitedText)
	}

	log.Infof("⚡ /%s from chat %d", command, chatID)

	switch name {
	case strings.ToLower(CommandImage):
		return d.sendImage(ctx, chatID)
	case strings.ToLower(CommandVideo):
		return d.sendClip(ctx, chatID)
	}

	if r, ok := d.routes[name]; ok {
		return d.runRoute(ctx, chatID, r)
	}
	return d.reply(ctx, chatID, d.help)
}

// Help returns the command list sent for unknown commands
func (d *Dispatcher) Help() string {
	return d.help
}

func (d *Dispatcher) runRoute(ctx context.Context, chatID int64, r models.Route) error {
	a := d.deps.Artifacts.New(models.KindVideo, r.Name)

	var opts []delivery.Option
	res, err := d.deps.Executor.Execute(ctx, r, a.Path)
	switch {
	case errors.Is(err, route.ErrBusy):
		d.release(a)
		return d.reply(ctx, chatID, busyText)
	case err != nil:
		log.Warningf("Route %s not executed: %v", r.Name, err)
		opts = append(opts, delivery.WithFailureDetail(fault.Describe(err)))
	case res.CaptureErr != nil:
		opts = append(opts, delivery.WithFailureDetail(fault.Describe(res.CaptureErr)))
	}

	_, err = d.deps.Deliveries.SendVideo(ctx, chatID, a, d.lifetime, opts...)
	return err
}

func (d *Dispatcher) sendClip(ctx context.Context, chatID int64) error {
	a := d.deps.Artifacts.New(models.KindVideo, CommandVideo)

	var opts []delivery.Option
	if err := d.deps.Recorder.Record(ctx, a.Path, d.clip); err != nil {
		log.Warningf("Clip capture failed: %v", err)
		opts = append(opts, delivery.WithFailureDetail(fault.Describe(err)))
	}

	_, err := d.deps.Deliveries.SendVideo(ctx, chatID, a, d.lifetime, opts...)
	return err
}

func (d *Dispatcher) sendImage(ctx context.Context, chatID int64) error {
	tok, err := d.deps.Tokens.Token(ctx)
	if err != nil {
		log.Warningf("Snapshot aborted: %v", err)
		return d.reply(ctx, chatID, tokenError)
	}

	data, err := d.deps.Camera.Snapshot(ctx, tok.Value)
	if err != nil {
		log.Warningf("Snapshot failed: %v", err)
		return d.reply(ctx, chatID, snapshotError)
	}

	a := d.deps.Artifacts.New(models.KindImage, CommandImage)
	if err := d.deps.Artifacts.Write(a, data); err != nil {
		log.Errorf("%v", err)
		d.release(a)
		return d.reply(ctx, chatID, snapshotError)
	}

	_, err = d.deps.Deliveries.SendImage(ctx, chatID, a, d.lifetime)
	return err
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) error {
	if _, err := d.deps.Replies.SendText(ctx, chatID, text); err != nil {
		return fmt.Errorf("failed to reply: %w", err)
	}
	return nil
}

func (d *Dispatcher) release(a *models.Artifact) {
	if err := d.deps.Artifacts.Release(a); err != nil {
		log.Warningf("%v", err)
	}
}

func helpText(routes []models.Route) string {
	var b strings.Builder
	b.WriteString(helpHeader)

	for _, r := range routes {
		fmt.Fprintf(&b, "/%s - %s\n", r.Name, r.Description)
	}
	fmt.Fprintf(&b, "/%s - %s\n", CommandImage, imageHelp)
	fmt.Fprintf(&b, "/%s - %s", CommandVideo, videoHelp)

	return b.String()
}
