package logger

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoHandler is a slog.Handler that mirrors records into a Mongo collection
// in addition to a wrapped console handler. Writes are buffered and flushed by
// a background goroutine; when the buffer is full records are dropped rather
// than blocking the request path.
//
// Enable with LOG_MONGO=true after the database connection is up:
//
//	logger.SetHandler(logger.NewMongoHandler(db.Collection("logs"), logger.L.Handler()))
type MongoHandler struct {
	inner slog.Handler
	ch    chan logRecord
}

type logRecord struct {
	Time    time.Time      `bson:"time"`
	Level   string         `bson:"level"`
	Message string         `bson:"message"`
	Attrs   map[string]any `bson:"attrs,omitempty"`
}

// NewMongoHandler wraps inner and mirrors every record it accepts into coll.
func NewMongoHandler(coll *mongo.Collection, inner slog.Handler) *MongoHandler {
	h := &MongoHandler{
		inner: inner,
		ch:    make(chan logRecord, 256),
	}
	go h.drain(coll)
	return h
}

func (h *MongoHandler) drain(coll *mongo.Collection) {
	for rec := range h.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, _ = coll.InsertOne(ctx, rec)
		cancel()
	}
}

func (h *MongoHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *MongoHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	select {
	case h.ch <- logRecord{Time: r.Time, Level: r.Level.String(), Message: r.Message, Attrs: attrs}:
	default: // buffer full — console output still happens below
	}

	return h.inner.Handle(ctx, r)
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &MongoHandler{inner: h.inner.WithAttrs(attrs), ch: h.ch}
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	return &MongoHandler{inner: h.inner.WithGroup(name), ch: h.ch}
}
