package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gftdcojp/tiervec/internal/collection"
	"github.com/gftdcojp/tiervec/internal/config"
	"github.com/gftdcojp/tiervec/internal/metrics"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Responder serves collections over NATS request-reply.
//
// Subjects:
//
//	{prefix}.push.{name}   payload: JSON integer or array; reply: snapshot
//	{prefix}.get.{name}    reply: snapshot
//	{prefix}.list          reply: summaries
//
// A push published without a reply subject is applied and not answered.
type Responder struct {
	nc       *nats.Conn
	registry *collection.Registry
	prefix   string
	logger   *zap.Logger
	subs     []*nats.Subscription
}

// NewResponder creates a responder; Start subscribes it.
func NewResponder(nc *nats.Conn, cfg config.NATSResponderConfig, reg *collection.Registry, logger *zap.Logger) *Responder {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "tiervec"
	}
	return &Responder{
		nc:       nc,
		registry: reg,
		prefix:   prefix,
		logger:   logger,
	}
}

// Start subscribes to all responder subjects.
func (r *Responder) Start() error {
	handlers := map[string]nats.MsgHandler{
		r.prefix + ".push.*": r.handlePush,
		r.prefix + ".get.*":  r.handleGet,
		r.prefix + ".list":   r.handleList,
	}
	for subject, fn := range handlers {
		sub, err := r.nc.Subscribe(subject, fn)
		if err != nil {
			r.Stop()
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		r.subs = append(r.subs, sub)
	}
	// Make sure the server has registered the subscriptions before callers
	// start publishing.
	if err := r.nc.Flush(); err != nil {
		r.Stop()
		return fmt.Errorf("flushing subscriptions: %w", err)
	}

	r.logger.Info("NATS responder started", zap.String("prefix", r.prefix))
	return nil
}

// Stop removes all subscriptions.
func (r *Responder) Stop() {
	for _, sub := range r.subs {
		sub.Unsubscribe()
	}
	r.subs = nil
}

// RunNATSResponder serves until ctx is cancelled.
func RunNATSResponder(ctx context.Context, nc *nats.Conn, cfg config.NATSResponderConfig, reg *collection.Registry, logger *zap.Logger) error {
	r := NewResponder(nc, cfg, reg, logger)
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	r.Stop()
	return nil
}

func (r *Responder) handlePush(msg *nats.Msg) {
	started := time.Now()
	c, err := r.collectionFor(msg.Subject)
	if err != nil {
		r.respondError(msg, "push", err, started)
		return
	}

	vs, err := decodeValues(msg.Data)
	if err != nil {
		r.respondError(msg, "push", err, started)
		return
	}

	snap := c.Extend(vs)
	r.respond(msg, "push", snap, started)
}

func (r *Responder) handleGet(msg *nats.Msg) {
	started := time.Now()
	c, err := r.collectionFor(msg.Subject)
	if err != nil {
		r.respondError(msg, "get", err, started)
		return
	}
	r.respond(msg, "get", c.Snapshot(), started)
}

func (r *Responder) handleList(msg *nats.Msg) {
	r.respond(msg, "list", r.registry.Summaries(), time.Now())
}

// collectionFor resolves the collection named by the last subject token.
func (r *Responder) collectionFor(subject string) (*collection.Collection, error) {
	name := subject[strings.LastIndexByte(subject, '.')+1:]
	return r.registry.Get(name)
}

func (r *Responder) respond(msg *nats.Msg, op string, v interface{}, started time.Time) {
	metrics.ObserveRequest("nats", op, "ok", started)
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("encoding reply", zap.String("op", op), zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		r.logger.Warn("sending reply", zap.String("op", op), zap.Error(err))
	}
}

func (r *Responder) respondError(msg *nats.Msg, op string, err error, started time.Time) {
	status := statusFor(err)
	metrics.ObserveRequest("nats", op, status, started)
	if msg.Reply == "" {
		r.logger.Warn("dropping message", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	if rerr := msg.Respond(data); rerr != nil {
		r.logger.Warn("sending error reply", zap.String("op", op), zap.Error(rerr))
	}
}
