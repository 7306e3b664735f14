// Package notify tells the user that ELISA is listening: a short cue sound
// and a desktop notification.
package notify

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/exec"
	"time"
)

type Player interface {
	Play(ctx context.Context, path string) error
}

// Notifier posts a desktop notification.
type Notifier func(ctx context.Context, summary, body string) error

// NotifySend posts through notify-send.
func NotifySend(ctx context.Context, summary, body string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "notify-send", "-a", "elisa", "-t", "3000", summary, body).Run()
}

type Cue struct {
	player  Player
	sound   string
	notify  Notifier
	title   string
	message string
}

// NewCue plays sound (skipped when the file is missing) and posts message.
// A nil notifier disables notifications.
func NewCue(player Player, sound string, notify Notifier, title, message string) *Cue {
	if _, err := os.Stat(sound); errors.Is(err, os.ErrNotExist) {
		log.Debug("Cue sound missing, recording silently", "path", sound)
		sound = ""
	}
	return &Cue{player: player, sound: sound, notify: notify, title: title, message: message}
}

// Listening blocks until the cue sound is over so it does not end up in the
// recording.
func (c *Cue) Listening(ctx context.Context) {
	if c.notify != nil {
		if err := c.notify(ctx, c.title, c.message); err != nil {
			log.Debug("Failed to notify", "err", err)
		}
	}
	if c.sound == "" || c.player == nil {
		return
	}
	if err := c.player.Play(ctx, c.sound); err != nil {
		log.Warn("Failed to play cue", "err", err)
	}
}
