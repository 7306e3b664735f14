// Package turn runs the conversation state machine: one loop owns the
// session, the phase and the conversation log, and background tasks report
// back to it with events.
package turn

import (
	"context"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"elisa/internal/audio"
	"elisa/internal/convo"
	"elisa/internal/dialogue"
)

type Phase int

const (
	Idle Phase = iota
	Recording
	Thinking
	Speaking
)

func (p Phase) String() string {
	switch p {
	case Recording:
		return "recording"
	case Thinking:
		return "thinking"
	case Speaking:
		return "speaking"
	default:
		return "idle"
	}
}

type Recorder interface {
	Record(ctx context.Context, d time.Duration, tick func(remaining int)) (*audio.Buffer, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, buf *audio.Buffer) string
}

type Responder interface {
	Respond(ctx context.Context, text string, sess dialogue.Session) dialogue.Reply
	Welcome(sess dialogue.Session) string
}

type Executor interface {
	Execute(ctx context.Context, text string) (string, bool)
}

// Speaker speaks text in the background; the channel closes when done.
type Speaker interface {
	Speak(ctx context.Context, text string) <-chan struct{}
}

// Cue signals the user that recording is about to start.
type Cue interface {
	Listening(ctx context.Context)
}

type Deps struct {
	Recorder    Recorder
	Transcriber Transcriber
	Responder   Responder
	Commands    Executor
	Speaker     Speaker
	Cue         Cue

	Log        *convo.Log
	Transcript *convo.Transcript
	View       View

	RecordDuration time.Duration
}

type Controller struct {
	deps Deps

	events  chan event
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// owned by the loop
	ctx          context.Context
	phase        Phase
	session      dialogue.Session
	seq          uint64
	recordID     uint64
	cancelRecord context.CancelFunc
	pending      int
	speechID     uint64
	cancelSpeech context.CancelFunc
	queue        []string
}

func New(deps Deps, session dialogue.Session) *Controller {
	if deps.RecordDuration <= 0 {
		deps.RecordDuration = audio.DefaultDuration
	}
	if deps.Log == nil {
		deps.Log = &convo.Log{}
	}
	if deps.View == nil {
		deps.View = Views{}
	}
	return &Controller{
		deps:    deps,
		events:  make(chan event, 16),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		session: session,
	}
}

// Observe adds v to the notified views. It must be called before Run.
func (c *Controller) Observe(v View) {
	c.deps.View = Views{c.deps.View, v}
}

// Record starts a voice turn. Ignored unless idle.
func (c *Controller) Record() { c.post(recordRequested{}) }

// Submit starts a typed turn. Ignored while recording or thinking.
func (c *Controller) Submit(text string) { c.post(submitted{text: text}) }

// Clear empties the in-memory conversation. The transcript file is kept.
func (c *Controller) Clear() { c.post(clearRequested{}) }

// Greet speaks the opening line.
func (c *Controller) Greet() { c.post(greetRequested{}) }

// Close stops the loop. A recording in progress is discarded and playback
// is cut off.
func (c *Controller) Close() {
	c.once.Do(func() { close(c.quit) })
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.stopped }

// Run processes events until ctx is cancelled or Close is called.
func (c *Controller) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		close(c.stopped)
	}()
	c.ctx = ctx

	log.Debug("Turn loop started")
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-c.quit:
			c.shutdown()
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.stopped:
	}
}

func (c *Controller) shutdown() {
	if c.cancelRecord != nil {
		c.cancelRecord()
		c.cancelRecord = nil
	}
	if c.cancelSpeech != nil {
		c.cancelSpeech()
		c.cancelSpeech = nil
	}
	c.queue = nil
	log.Debug("Turn loop stopped", "phase", c.phase)
}

func (c *Controller) handle(ev event) {
	switch ev := ev.(type) {
	case recordRequested:
		c.startRecording()
	case countdown:
		if ev.id == c.recordID && c.cancelRecord != nil {
			c.deps.View.Countdown(ev.remaining)
		}
	case captured:
		c.finishRecording(ev)
	case submitted:
		c.submit(ev.text)
	case replied:
		c.reply(ev)
	case spoken:
		c.finishSpeech(ev.id)
	case clearRequested:
		c.deps.Log.Clear()
		c.deps.View.Cleared()
	case greetRequested:
		text := c.deps.Responder.Welcome(c.session)
		c.add(convo.Assistant, text)
		c.speak(text)
	}
	c.settle()
}

func (c *Controller) startRecording() {
	if c.phase != Idle {
		log.Debug("Recording ignored", "phase", c.phase)
		return
	}

	c.seq++
	id := c.seq
	ctx, cancel := context.WithCancel(c.ctx)
	c.recordID, c.cancelRecord = id, cancel
	c.deps.View.RecordEnabled(false)

	go func() {
		text := c.capture(ctx, id)
		c.post(captured{id: id, text: text})
	}()
}

// capture runs record, enhance and transcribe back to back.
func (c *Controller) capture(ctx context.Context, id uint64) string {
	if c.deps.Cue != nil {
		c.deps.Cue.Listening(ctx)
	}

	buf, err := c.deps.Recorder.Record(ctx, c.deps.RecordDuration, func(remaining int) {
		c.post(countdown{id: id, remaining: remaining})
	})
	if err != nil {
		log.Error("Failed to record", "err", err)
		return ""
	}
	if ctx.Err() != nil {
		return ""
	}

	log.Info("Recorded", "samples", len(buf.Samples), "duration", buf.Duration())
	return c.deps.Transcriber.Transcribe(ctx, audio.Enhance(buf))
}

func (c *Controller) finishRecording(ev captured) {
	if ev.id != c.recordID || c.cancelRecord == nil {
		return
	}
	c.cancelRecord()
	c.cancelRecord = nil
	c.deps.View.RecordEnabled(true)

	if ev.text == "" {
		log.Info("Nothing transcribed")
		return
	}
	c.think(ev.text)
}

func (c *Controller) submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if c.cancelRecord != nil || c.pending > 0 {
		log.Debug("Submit ignored", "phase", c.phase)
		return
	}
	c.think(text)
}

func (c *Controller) think(text string) {
	c.add(convo.User, text)
	c.pending++

	sess := c.session
	go func() {
		r := c.deps.Responder.Respond(c.ctx, text, sess)
		c.post(replied{input: text, reply: r})
	}()
}

func (c *Controller) reply(ev replied) {
	c.pending--
	if ev.reply.CapturedName != "" && c.session.SetUserName(ev.reply.CapturedName) {
		log.Info("Session user set", "name", c.session.UserName)
	}
	c.add(convo.Assistant, ev.reply.Text)

	if c.deps.Commands != nil {
		go c.deps.Commands.Execute(c.ctx, ev.input)
	}
	c.speak(ev.reply.Text)
}

// speak queues text behind the utterance in progress, if any.
func (c *Controller) speak(text string) {
	c.queue = append(c.queue, text)
	if c.cancelSpeech == nil {
		c.nextSpeech()
	}
}

func (c *Controller) nextSpeech() {
	if len(c.queue) == 0 {
		return
	}
	text := c.queue[0]
	c.queue = c.queue[1:]

	c.seq++
	id := c.seq
	ctx, cancel := context.WithCancel(c.ctx)
	c.speechID, c.cancelSpeech = id, cancel

	done := c.deps.Speaker.Speak(ctx, text)
	go func() {
		<-done
		c.post(spoken{id: id})
	}()
}

func (c *Controller) finishSpeech(id uint64) {
	if id != c.speechID || c.cancelSpeech == nil {
		return
	}
	c.cancelSpeech()
	c.cancelSpeech = nil
	c.nextSpeech()
}

func (c *Controller) add(s convo.Speaker, text string) {
	e := convo.NewEntry(s, text)
	convo.Record(c.deps.Log, c.deps.Transcript, e)
	c.deps.View.EntryAdded(e)
}

// settle derives the phase from the tasks in flight.
func (c *Controller) settle() {
	next := Idle
	switch {
	case c.cancelRecord != nil:
		next = Recording
	case c.pending > 0:
		next = Thinking
	case c.cancelSpeech != nil:
		next = Speaking
	}
	if next == c.phase {
		return
	}

	log.Debug("Phase", "from", c.phase, "to", next)
	c.phase = next
	c.deps.View.PhaseChanged(next)
}
