package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rezmoss/simpletracker/internal/gateway"
	"github.com/rezmoss/simpletracker/internal/model"
)

const (
	currentTaskTopic = "realtime:current_tasks_changes"

	eventJoin      = "phx_join"
	eventLeave     = "phx_leave"
	eventReply     = "phx_reply"
	eventHeartbeat = "heartbeat"
	eventChanges   = "postgres_changes"
)

// message is a Phoenix channel frame.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type joinPayload struct {
	Config struct {
		PostgresChanges []changeFilter `json:"postgres_changes"`
	} `json:"config"`
	AccessToken string `json:"access_token"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changesPayload struct {
	Data struct {
		Type      string                  `json:"type"`
		Table     string                  `json:"table"`
		Record    model.CurrentTaskRecord `json:"record"`
		OldRecord model.CurrentTaskRecord `json:"old_record"`
	} `json:"data"`
}

type subscription struct {
	c    *Client
	conn *websocket.Conn
	fn   func(model.ChangeEvent)
	ref  atomic.Uint64

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
	wg      sync.WaitGroup
}

func (c *Client) realtimeURL() string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = realtimePath
	u.RawQuery = url.Values{"apikey": {c.anonKey}, "vsn": {"1.0.0"}}.Encode()
	return u.String()
}

// SubscribeCurrentTask joins the current_tasks channel filtered to the signed
// in user. fn runs on the subscription's read goroutine.
func (c *Client) SubscribeCurrentTask(ctx context.Context, fn func(model.ChangeEvent)) (gateway.Subscription, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	uid, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.realtimeURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("realtime: dial: %w", err)
	}
	s := &subscription{c: c, conn: conn, fn: fn, done: make(chan struct{})}

	var join joinPayload
	join.AccessToken = token
	join.Config.PostgresChanges = []changeFilter{{
		Event:  "*",
		Schema: "public",
		Table:  "current_tasks",
		Filter: "user_id=eq." + uid,
	}}
	ref, err := s.send(currentTaskTopic, eventJoin, join)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := s.awaitJoin(ctx, ref); err != nil {
		conn.Close()
		return nil, err
	}

	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()
	realtimeSubscriptions.Inc()

	s.wg.Add(2)
	go s.readLoop()
	go s.heartbeatLoop(c.heartbeat)
	c.log.Debug("realtime channel joined", "topic", currentTaskTopic)
	return s, nil
}

func (s *subscription) send(topic, event string, payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	ref := strconv.FormatUint(s.ref.Add(1), 10)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ref, s.conn.WriteJSON(message{Topic: topic, Event: event, Payload: b, Ref: ref})
}

func (s *subscription) awaitJoin(ctx context.Context, ref string) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(deadline)
	} else {
		_ = s.conn.SetReadDeadline(time.Now().Add(defaultTimeout))
	}
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("realtime: join: %w", err)
		}
		if msg.Event != eventReply || msg.Ref != ref {
			continue
		}
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("realtime: join reply: %w", err)
		}
		if reply.Status != "ok" {
			return fmt.Errorf("realtime: join rejected: %s %s", reply.Status, reply.Response)
		}
		return nil
	}
}

func (s *subscription) readLoop() {
	defer s.wg.Done()
	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.done:
			default:
				s.c.log.Warn("realtime channel closed", "error", err)
			}
			return
		}
		if msg.Topic != currentTaskTopic || msg.Event != eventChanges {
			continue
		}
		var p changesPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.c.log.Warn("bad realtime payload", "error", err)
			continue
		}
		ev := model.ChangeEvent{
			Type: model.EventType(p.Data.Type),
			New:  p.Data.Record,
			Old:  p.Data.OldRecord,
		}
		realtimeEvents.WithLabelValues(p.Data.Type).Inc()
		s.fn(ev)
	}
}

func (s *subscription) heartbeatLoop(every time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			if _, err := s.send("phoenix", eventHeartbeat, struct{}{}); err != nil {
				s.c.log.Warn("realtime heartbeat failed", "error", err)
				return
			}
		}
	}
}

// Unsubscribe leaves the channel and closes the socket. Later calls return nil.
func (s *subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		_, leaveErr := s.send(currentTaskTopic, eventLeave, struct{}{})
		closeErr := s.conn.Close()
		if leaveErr != nil && !errors.Is(leaveErr, websocket.ErrCloseSent) {
			err = leaveErr
		} else {
			err = closeErr
		}
		s.wg.Wait()

		s.c.mu.Lock()
		delete(s.c.subs, s)
		s.c.mu.Unlock()
		realtimeSubscriptions.Dec()
	})
	return err
}
