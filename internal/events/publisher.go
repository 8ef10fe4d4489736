// Package events publishes lifecycle notifications to NATS. Publishing is
// best effort: a failed publish never fails the API call that caused it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openrack/skiff/internal/models"
)

const (
	SubjectServerCreated = "skiff.servers.created"
	SubjectDiskAttached  = "skiff.servers.disk_attached"
)

// ServerEvent is the JSON payload published for every lifecycle event.
type ServerEvent struct {
	Event    string `json:"event"`
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	DiskID   string `json:"disk_id,omitempty"`
	SizeGB   int    `json:"size_gb,omitempty"`
	Time     int64  `json:"time"`
}

// Publisher wraps a NATS connection. A nil *Publisher is valid and
// publishes nothing, so callers need no wiring when eventing is disabled.
type Publisher struct {
	nc  *nats.Conn
	log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name("skiffd"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, log: log}, nil
}

// ServerCreated publishes a creation notice for srv.
func (p *Publisher) ServerCreated(ctx context.Context, srv *models.Server) error {
	return p.publish(SubjectServerCreated, ServerEvent{
		Event:    "server.created",
		ServerID: srv.ID,
		Name:     srv.Name,
		Status:   string(srv.Status),
		Time:     time.Now().Unix(),
	})
}

// DiskAttached publishes an attachment notice for disk d on srv.
func (p *Publisher) DiskAttached(ctx context.Context, srv *models.Server, d models.Disk) error {
	return p.publish(SubjectDiskAttached, ServerEvent{
		Event:    "server.disk_attached",
		ServerID: srv.ID,
		Name:     srv.Name,
		Status:   string(srv.Status),
		DiskID:   d.ID,
		SizeGB:   d.SizeGB,
		Time:     time.Now().Unix(),
	})
}

func (p *Publisher) publish(subject string, ev ServerEvent) error {
	if p == nil {
		return nil
	}
	if p.nc == nil || p.nc.IsClosed() {
		return fmt.Errorf("nats not connected")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(subject, payload)
}

func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Drain()
	p.nc.Close()
}
