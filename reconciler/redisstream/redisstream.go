package redisstream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
	"github.com/navikt/syfooversiktsrv-go/reconciler"
)

const (
	payloadField = "payload"

	busyGroupPrefix = "BUSYGROUP"

	readAllPending = "0"
	readNewOnly    = ">"
)

var (
	ErrNilRedisClient   = errors.New("redis client must not be nil")
	ErrEmptyGroupName   = errors.New("consumer group name must not be empty")
	ErrNoStreams        = errors.New("at least one stream must be configured")
	ErrCreatingGroup    = errors.New("creating consumer group failed")
	ErrReadingStream    = errors.New("reading from stream failed")
	ErrAckingStream     = errors.New("acknowledging stream entries failed")
	ErrMissingPayload   = errors.New("stream entry carries no payload field")
)

// Log is the Redis Streams implementation of reconciler.RecordLog.
//
// Each stream tag maps to one Redis stream key (optionally prefixed). Consumers
// share a consumer group, so Redis partitions pending entries across the group
// members and redelivers entries that were read but never acknowledged.
type Log struct {
	client    *redis.Client
	group     string
	consumer  string
	keyPrefix string
	streams   []personoversikt.StreamTag

	// drained flips once this consumer's own pending entries from a previous
	// run have been redelivered; after that Poll only reads new entries.
	drained bool
}

// Option configures optional Log behaviour.
type Option func(*Log)

// WithKeyPrefix namespaces the Redis stream keys, e.g. per environment.
func WithKeyPrefix(prefix string) Option {
	return func(l *Log) {
		l.keyPrefix = prefix
	}
}

// NewLog creates the log consumer and ensures the consumer group exists on
// every configured stream. Groups start at the beginning of the stream, so a
// freshly deployed consumer processes the full history once.
func NewLog(
	ctx context.Context,
	client *redis.Client,
	group string,
	consumer string,
	streams []personoversikt.StreamTag,
	options ...Option,
) (*Log, error) {

	if client == nil {
		return nil, ErrNilRedisClient
	}

	if group == "" {
		return nil, ErrEmptyGroupName
	}

	if len(streams) == 0 {
		return nil, ErrNoStreams
	}

	l := &Log{
		client:   client,
		group:    group,
		consumer: consumer,
		streams:  streams,
	}

	for _, option := range options {
		option(l)
	}

	for _, stream := range streams {
		if err := l.ensureGroup(ctx, l.key(stream)); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// ensureGroup creates the consumer group, tolerating that it already exists.
func (l *Log) ensureGroup(ctx context.Context, key string) error {
	err := l.client.XGroupCreateMkStream(ctx, key, l.group, readAllPending).Err()
	if err != nil && !strings.HasPrefix(err.Error(), busyGroupPrefix) {
		return errors.Join(ErrCreatingGroup, err)
	}

	return nil
}

// Poll reads up to max entries across all configured streams, blocking up to
// wait when nothing is pending. An empty result is normal and not an error.
//
// The first polls after startup read this consumer's pending entries, so a
// batch that was delivered but never committed before a crash is processed
// again before any new entries.
func (l *Log) Poll(ctx context.Context, max int, wait time.Duration) ([]reconciler.Record, error) {
	if !l.drained {
		// negative Block keeps go-redis from sending BLOCK at all
		records, err := l.read(ctx, max, -1, readAllPending)
		if err != nil {
			return nil, err
		}

		if len(records) > 0 {
			return records, nil
		}

		l.drained = true
	}

	return l.read(ctx, max, wait, readNewOnly)
}

func (l *Log) read(ctx context.Context, max int, wait time.Duration, position string) ([]reconciler.Record, error) {
	streamArgs := make([]string, 0, len(l.streams)*2)
	for _, stream := range l.streams {
		streamArgs = append(streamArgs, l.key(stream))
	}
	for range l.streams {
		streamArgs = append(streamArgs, position)
	}

	result, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    l.group,
		Consumer: l.consumer,
		Streams:  streamArgs,
		Count:    int64(max),
		Block:    wait,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Join(ErrReadingStream, err)
	}

	records := make([]reconciler.Record, 0, max)

	for _, stream := range result {
		tag := l.tag(stream.Stream)

		for _, message := range stream.Messages {
			payload, payloadErr := payloadFrom(message)
			if payloadErr != nil {
				return nil, payloadErr
			}

			records = append(records, reconciler.Record{
				Stream:  tag,
				ID:      message.ID,
				Payload: payload,
			})
		}
	}

	return records, nil
}

// Commit acknowledges the records in their consumer group, one XACK per stream.
func (l *Log) Commit(ctx context.Context, records []reconciler.Record) error {
	perStream := make(map[personoversikt.StreamTag][]string)
	for _, record := range records {
		perStream[record.Stream] = append(perStream[record.Stream], record.ID)
	}

	for stream, ids := range perStream {
		if err := l.client.XAck(ctx, l.key(stream), l.group, ids...).Err(); err != nil {
			return errors.Join(ErrAckingStream, err)
		}
	}

	return nil
}

func (l *Log) key(stream personoversikt.StreamTag) string {
	return l.keyPrefix + string(stream)
}

func (l *Log) tag(key string) personoversikt.StreamTag {
	return personoversikt.StreamTag(strings.TrimPrefix(key, l.keyPrefix))
}

func payloadFrom(message redis.XMessage) ([]byte, error) {
	raw, exists := message.Values[payloadField]
	if !exists {
		return nil, ErrMissingPayload
	}

	payload, ok := raw.(string)
	if !ok {
		return nil, ErrMissingPayload
	}

	return []byte(payload), nil
}

var _ reconciler.RecordLog = (*Log)(nil)
