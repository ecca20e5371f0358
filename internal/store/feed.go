package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
)

// feedChannelPrefix namespaces the notify channels so other users of
// the database do not collide with ours.
const feedChannelPrefix = "pennywise_"

// feedBuffer is the per-subscription event buffer. A full buffer blocks
// the listen loop, not the database.
const feedBuffer = 64

// feedEnvelope is the wire shape the notify triggers emit: the
// operation plus the row images valid for it. A partial envelope
// carries id-only images because the full row would not fit the notify
// payload cap; the subscriber refetches.
type feedEnvelope struct {
	Op      string          `json:"op"`
	New     json.RawMessage `json:"new"`
	Old     json.RawMessage `json:"old"`
	Partial bool            `json:"partial"`
}

// decodeEvent turns one notify payload into a typed change event,
// rejecting payloads whose row images do not match the operation.
func decodeEvent[T model.Entity](payload []byte) (service.ChangeEvent[T], error) {
	var zero service.ChangeEvent[T]

	var env feedEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return zero, fmt.Errorf("failed to decode feed payload: %w", err)
	}
	return eventFromEnvelope[T](env)
}

func eventFromEnvelope[T model.Entity](env feedEnvelope) (service.ChangeEvent[T], error) {
	var zero service.ChangeEvent[T]

	switch env.Op {
	case string(service.OpInsert):
		newRow, err := decodeRow[T](env.New)
		if err != nil {
			return zero, fmt.Errorf("INSERT event: %w", err)
		}
		return service.InsertEvent(newRow), nil
	case string(service.OpUpdate):
		newRow, err := decodeRow[T](env.New)
		if err != nil {
			return zero, fmt.Errorf("UPDATE event: %w", err)
		}
		oldRow, err := decodeRow[T](env.Old)
		if err != nil {
			return zero, fmt.Errorf("UPDATE event: %w", err)
		}
		return service.UpdateEvent(newRow, oldRow), nil
	case string(service.OpDelete):
		oldRow, err := decodeRow[T](env.Old)
		if err != nil {
			return zero, fmt.Errorf("DELETE event: %w", err)
		}
		return service.DeleteEvent(oldRow), nil
	default:
		return zero, fmt.Errorf("unknown feed operation %q", env.Op)
	}
}

func decodeRow[T model.Entity](raw json.RawMessage) (T, error) {
	var row T
	if len(raw) == 0 || string(raw) == "null" {
		return row, errors.New("missing row image")
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return row, fmt.Errorf("failed to decode row image: %w", err)
	}
	return row, nil
}

// resolvePartial turns a truncated envelope into a full event. INSERT
// and UPDATE refetch the row the id-only image points at; DELETE needs
// no refetch, since reconciliation only uses the old image's identity.
func (c *pgCollection[T, P]) resolvePartial(ctx context.Context, env feedEnvelope) (service.ChangeEvent[T], error) {
	var zero service.ChangeEvent[T]

	switch env.Op {
	case string(service.OpInsert), string(service.OpUpdate):
		stub, err := decodeRow[T](env.New)
		if err != nil {
			return zero, fmt.Errorf("%s event: %w", env.Op, err)
		}
		row, err := queryOne[T](ctx, c.pool,
			fmt.Sprintf(`SELECT to_jsonb(%s) FROM %s WHERE id = $1`, c.table, c.table), stub.EntityID())
		if err != nil {
			// A NotFound here means the row vanished between notify and
			// refetch; the DELETE event behind it cleans up.
			return zero, fmt.Errorf("%s event refetch: %w", env.Op, err)
		}
		if env.Op == string(service.OpInsert) {
			return service.InsertEvent(row), nil
		}
		return service.UpdateEvent(row, stub), nil
	case string(service.OpDelete):
		oldRow, err := decodeRow[T](env.Old)
		if err != nil {
			return zero, fmt.Errorf("DELETE event: %w", err)
		}
		return service.DeleteEvent(oldRow), nil
	default:
		return zero, fmt.Errorf("unknown feed operation %q", env.Op)
	}
}

// Subscribe opens the table's change feed on a dedicated connection.
// The returned close function releases the connection; the channel
// closes once the listen loop exits.
func (c *pgCollection[T, P]) Subscribe(ctx context.Context) (<-chan service.ChangeEvent[T], func(), error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, common.NewRemoteError("subscribe", c.table, err)
	}

	channel := feedChannelPrefix + c.table
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return nil, nil, common.NewRemoteError("subscribe", c.table, err)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	events := make(chan service.ChangeEvent[T], feedBuffer)

	go func() {
		defer close(events)
		defer conn.Release()
		for {
			notification, err := conn.Conn().WaitForNotification(feedCtx)
			if err != nil {
				if feedCtx.Err() == nil {
					slog.Warn("Change feed connection lost",
						"table", c.table,
						"error", err)
				}
				return
			}

			var env feedEnvelope
			if err := json.Unmarshal([]byte(notification.Payload), &env); err != nil {
				slog.Warn("Dropping malformed feed event",
					"table", c.table,
					"error", err)
				continue
			}

			var ev service.ChangeEvent[T]
			if env.Partial {
				ev, err = c.resolvePartial(feedCtx, env)
			} else {
				ev, err = eventFromEnvelope[T](env)
			}
			if err != nil {
				slog.Warn("Dropping undecodable feed event",
					"table", c.table,
					"error", err)
				continue
			}

			select {
			case events <- ev:
			case <-feedCtx.Done():
				return
			}
		}
	}()

	return events, cancel, nil
}
