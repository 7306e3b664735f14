// Package bus mirrors conversation events to a websocket hub so other
// displays can follow along. It only ever writes.
package bus

import (
	"context"
	"encoding/json"
	log "log/slog"
	"time"

	ws "github.com/gorilla/websocket"

	"elisa/internal/convo"
	"elisa/internal/turn"
)

const (
	KindPhase     = "phase"
	KindEntry     = "entry"
	KindCountdown = "countdown"
	KindCleared   = "cleared"
	KindRecord    = "record"
)

type Event struct {
	From      string    `json:"from"`
	Kind      string    `json:"kind"`
	Phase     string    `json:"phase,omitempty"`
	Speaker   string    `json:"speaker,omitempty"`
	Text      string    `json:"text,omitempty"`
	Remaining int       `json:"remaining,omitempty"`
	Enabled   *bool     `json:"enabled,omitempty"`
	Time      time.Time `json:"time"`
}

// Publisher delivers events to url, reconnecting every reconn while the hub
// is unreachable. Events published while disconnected or backed up are
// dropped.
type Publisher struct {
	from   string
	url    string
	reconn time.Duration
	out    chan Event
	dialer *ws.Dialer
}

func NewPublisher(from, url string, reconn time.Duration) *Publisher {
	if reconn <= 0 {
		reconn = time.Second
	}
	return &Publisher{
		from:   from,
		url:    url,
		reconn: reconn,
		out:    make(chan Event, 64),
		dialer: ws.DefaultDialer,
	}
}

func (p *Publisher) Publish(e Event) {
	e.From = p.from
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case p.out <- e:
	default:
		log.Debug("Bus backed up, dropping event", "kind", e.Kind)
	}
}

// Run keeps a connection to the hub and writes events until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		conn := p.connect(ctx)
		if conn == nil {
			return
		}
		err := p.pump(ctx, conn)
		conn.Close()
		if err == nil {
			return
		}
		log.Warn("Bus connection lost", "url", p.url, "err", err)
	}
}

func (p *Publisher) connect(ctx context.Context) *ws.Conn {
	for {
		conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
		if err == nil {
			log.Info("Connected to bus", "url", p.url)
			return conn
		}
		log.Debug("Failed to dial bus", "url", p.url, "err", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.reconn):
		}
	}
}

func (p *Publisher) pump(ctx context.Context, conn *ws.Conn) error {
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return nil
		case e := <-p.out:
			data, err := json.Marshal(e)
			if err != nil {
				log.Error("Failed to encode bus event", "err", err)
				continue
			}
			if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
				return err
			}
		}
	}
}

// View adapts the publisher to the turn controller.
type View struct{ P *Publisher }

var _ turn.View = View{}

func (v View) PhaseChanged(ph turn.Phase) {
	v.P.Publish(Event{Kind: KindPhase, Phase: ph.String()})
}

func (v View) EntryAdded(e convo.Entry) {
	v.P.Publish(Event{Kind: KindEntry, Speaker: e.Speaker.String(), Text: e.Text, Time: e.Time})
}

func (v View) Countdown(remaining int) {
	v.P.Publish(Event{Kind: KindCountdown, Remaining: remaining})
}

func (v View) Cleared() { v.P.Publish(Event{Kind: KindCleared}) }

func (v View) RecordEnabled(enabled bool) {
	v.P.Publish(Event{Kind: KindRecord, Enabled: &enabled})
}
