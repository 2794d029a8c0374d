// Package delivery sends captured media to a chat and removes it again after a delay.
package delivery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

var log = logging.MustGetLogger("delivery")

// DefaultLifetime is how long delivered media stays in the chat
const DefaultLifetime = 30 * time.Second

// Messenger is the chat surface deliveries go through
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	SendVideo(ctx context.Context, chatID int64, path string) (int, error)
	SendPhoto(ctx context.Context, chatID int64, path string) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// ArtifactStore validates and releases artifact files
type ArtifactStore interface {
	Validate(a *models.Artifact) error
	Release(a *models.Artifact) error
}

// Observer is notified of every delivery state change
type Observer interface {
	Publish(event models.DeliveryEvent)
}

// Option customises a single delivery
type Option func(*options)

type options struct {
	failureDetail string
}

// WithFailureDetail appends a reason to the failure notice sent for an invalid artifact
func WithFailureDetail(detail string) Option {
	return func(o *options) {
		o.failureDetail = detail
	}
}

// Manager handles all delivery operations
type Manager struct {
	messenger  Messenger
	store      ArtifactStore
	observers  []Observer
	deliveries sync.Map // deliveryID -> *models.Delivery
	mu         sync.Mutex
}

// NewManager creates a new delivery manager
func NewManager(messenger Messenger, store ArtifactStore, observers ...Observer) *Manager {
	return &Manager{
		messenger: messenger,
		store:     store,
		observers: observers,
	}
}

// SendVideo delivers a video artifact and blocks until its self-destruct has run
func (m *Manager) SendVideo(ctx context.Context, chatID int64, a *models.Artifact, deleteAfter time.Duration, opts ...Option) (*models.Delivery, error) {
	return m.deliver(ctx, chatID, a, deleteAfter, opts...)
}

// SendImage delivers an image artifact and blocks until its self-destruct has run
func (m *Manager) SendImage(ctx context.Context, chatID int64, a *models.Artifact, deleteAfter time.Duration, opts ...Option) (*models.Delivery, error) {
	return m.deliver(ctx, chatID, a, deleteAfter, opts...)
}

func (m *Manager) deliver(ctx context.Context, chatID int64, a *models.Artifact, deleteAfter time.Duration, opts ...Option) (*models.Delivery, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	d := &models.Delivery{
		ID:          uuid.New().String(),
		ChatID:      chatID,
		ArtifactID:  a.ID,
		Kind:        a.Kind,
		DeleteAfter: deleteAfter,
		CreatedAt:   time.Now(),
	}
	m.deliveries.Store(d.ID, d)
	m.transition(d, models.StatusPendingValidation)

	if err := m.store.Validate(a); err != nil {
		log.Warningf("Delivery %s to chat %d: %v", d.ID[:8], chatID, err)
		return d, m.notifyFailure(ctx, d, a, o.failureDetail)
	}

	info, err := m.messenger.SendText(ctx, chatID, countdownText(a.Kind, deleteAfter))
	if err != nil {
		return d, m.fail(d, a, fmt.Errorf("failed to send countdown message: %w", err))
	}
	m.update(func() { d.InfoMessageID = info })

	var media int
	if a.Kind == models.KindImage {
		media, err = m.messenger.SendPhoto(ctx, chatID, a.Path)
	} else {
		media, err = m.messenger.SendVideo(ctx, chatID, a.Path)
	}
	if err != nil {
		return d, m.fail(d, a, fmt.Errorf("failed to send %s: %w", a.Kind, err))
	}
	m.update(func() { d.MediaMessageID = media })
	m.transition(d, models.StatusSent)

	log.Infof("📤 Delivered %s (%d bytes) to chat %d, self-destruct in %v", a.Kind, a.Size, chatID, deleteAfter)

	m.update(func() { d.DestructAt = time.Now().Add(deleteAfter) })
	m.transition(d, models.StatusAwaitingDestruct)
	m.awaitDestruct(ctx, deleteAfter)
	m.destruct(d, a)

	return d, nil
}

// awaitDestruct waits out the self-destruct delay. Shutdown cuts the wait short
// so pending messages are still removed.
func (m *Manager) awaitDestruct(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		log.Infof("Shutting down, running self-destruct early")
	}
}

// destruct removes both messages and the artifact. Deletion failures are tolerated.
func (m *Manager) destruct(d *models.Delivery, a *models.Artifact) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := m.messenger.Delete(ctx, d.ChatID, d.MediaMessageID); err != nil {
		log.Debugf("Delivery %s: could not delete media message %d: %v", d.ID[:8], d.MediaMessageID, err)
	}
	if err := m.messenger.Delete(ctx, d.ChatID, d.InfoMessageID); err != nil {
		log.Debugf("Delivery %s: could not delete info message %d: %v", d.ID[:8], d.InfoMessageID, err)
	}
	if err := m.store.Release(a); err != nil {
		log.Warningf("Delivery %s: %v", d.ID[:8], err)
	}

	m.update(func() { d.DestroyedAt = time.Now() })
	m.transition(d, models.StatusDestroyed)
	log.Infof("💥 Delivery %s self-destructed", d.ID[:8])
}

func (m *Manager) notifyFailure(ctx context.Context, d *models.Delivery, a *models.Artifact, detail string) error {
	text := failureText(a.Kind)
	if detail != "" {
		text = fmt.Sprintf("%s (%s)", text, detail)
	}

	if err := m.store.Release(a); err != nil {
		log.Warningf("Delivery %s: %v", d.ID[:8], err)
	}

	if _, err := m.messenger.SendText(ctx, d.ChatID, text); err != nil {
		return m.fail(d, nil, fmt.Errorf("failed to send failure notice: %w", err))
	}
	m.transition(d, models.StatusFailedNotified)
	return nil
}

// fail marks a delivery whose send was rejected. No self-destruct is scheduled.
func (m *Manager) fail(d *models.Delivery, a *models.Artifact, err error) error {
	m.update(func() { d.Error = err.Error() })
	m.transition(d, models.StatusError)
	if a != nil {
		if rerr := m.store.Release(a); rerr != nil {
			log.Warningf("Delivery %s: %v", d.ID[:8], rerr)
		}
	}
	log.Errorf("Delivery %s to chat %d failed: %v", d.ID[:8], d.ChatID, err)
	return err
}

// update mutates a tracked delivery under the manager lock
func (m *Manager) update(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func (m *Manager) transition(d *models.Delivery, status models.DeliveryStatus) {
	m.update(func() { d.Status = status })

	event := models.DeliveryEvent{
		DeliveryID: d.ID,
		ChatID:     d.ChatID,
		Kind:       d.Kind,
		Status:     status,
		At:         time.Now(),
	}
	for _, o := range m.observers {
		o.Publish(event)
	}
}

// GetDelivery retrieves a snapshot of a delivery by ID
func (m *Manager) GetDelivery(id string) (*models.Delivery, error) {
	value, ok := m.deliveries.Load(id)
	if !ok {
		return nil, fmt.Errorf("delivery not found")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := *value.(*models.Delivery)
	return &snapshot, nil
}

// ListDeliveries returns all deliveries, optionally filtered by status, newest first
func (m *Manager) ListDeliveries(status models.DeliveryStatus) []*models.Delivery {
	var deliveries []*models.Delivery

	m.mu.Lock()
	m.deliveries.Range(func(key, value interface{}) bool {
		d := value.(*models.Delivery)
		if status != "" && d.Status != status {
			return true
		}
		snapshot := *d
		deliveries = append(deliveries, &snapshot)
		return true
	})
	m.mu.Unlock()

	sort.Slice(deliveries, func(i, j int) bool {
		return deliveries[i].CreatedAt.After(deliveries[j].CreatedAt)
	})
	return deliveries
}

func countdownText(kind models.MediaKind, delay time.Duration) string {
	seconds := int(delay.Round(time.Second) / time.Second)
	if kind == models.KindImage {
		return fmt.Sprintf("Esta imagen se autodestruirá en %d segundos.", seconds)
	}
	return fmt.Sprintf("Este video se autodestruirá en %d segundos.", seconds)
}

func failureText(kind models.MediaKind) string {
	if kind == models.KindImage {
		return "No se pudo obtener la imagen de la cámara."
	}
	return "No se pudo grabar el video."
}
