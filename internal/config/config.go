// Package config assembles runtime settings from defaults, an optional YAML
// file and ELISA_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"elisa/internal/dialogue"
)

type Config struct {
	AssistantName string `yaml:"assistant_name"`
	Language      string `yaml:"language"`

	Audio struct {
		RecordDuration time.Duration `yaml:"record_duration"`
		CueSound       string        `yaml:"cue_sound"`
		Duck           bool          `yaml:"duck"`
		DuckFactor     float64       `yaml:"duck_factor"`
	} `yaml:"audio"`

	STT struct {
		Model         string        `yaml:"model"`
		RecordingPath string        `yaml:"recording_path"`
		Temperature   float32       `yaml:"temperature"`
		BeamSize      int           `yaml:"beam_size"`
		Denylist      []string      `yaml:"denylist"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"stt"`

	LLM struct {
		BaseURL   string        `yaml:"base_url"`
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model"`
		MaxTokens int           `yaml:"max_tokens"`
		MaxWords  int           `yaml:"max_words"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	TTS struct {
		Engine  string        `yaml:"engine"` // gtts | espeak
		Slow    bool          `yaml:"slow"`
		Dir     string        `yaml:"dir"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"tts"`

	Avatar struct {
		Idle   string `yaml:"idle"`
		Active string `yaml:"active"`
	} `yaml:"avatar"`

	TranscriptPath string             `yaml:"transcript_path"`
	Commands       []dialogue.Command `yaml:"commands"`

	Socket string `yaml:"socket"`
	BusURL string `yaml:"bus_url"`
	Proxy  string `yaml:"proxy"`
}

func Default() *Config {
	c := &Config{
		AssistantName:  "ELISA",
		Language:       "es",
		TranscriptPath: "conversacion.txt",
		Socket:         "/tmp/elisa.sock",
	}

	c.Audio.RecordDuration = 15 * time.Second
	c.Audio.CueSound = "assets/beep.mp3"
	c.Audio.Duck = true
	c.Audio.DuckFactor = 0.3

	c.STT.Model = "models/ggml-base.bin"
	c.STT.RecordingPath = "grabacion.wav"
	c.STT.Temperature = 0.2
	c.STT.BeamSize = 5
	c.STT.Timeout = 60 * time.Second

	c.LLM.BaseURL = dialogue.DefaultBaseURL
	c.LLM.APIKey = "ollama"
	c.LLM.Model = "mistral"
	c.LLM.MaxTokens = 50
	c.LLM.MaxWords = dialogue.DefaultMaxWords
	c.LLM.Timeout = 60 * time.Second

	c.TTS.Engine = "gtts"
	c.TTS.Dir = "temp_audio"
	c.TTS.Timeout = 30 * time.Second

	c.Avatar.Idle = "assets/avatar_quieto.gif"
	c.Avatar.Active = "assets/avatar_hablando.gif"

	return c
}

// Load reads path over the defaults, then applies the environment. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for i := range c.Commands {
		c.Commands[i].Prefix = strings.ToLower(c.Commands[i].Prefix)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("ELISA_NAME", &c.AssistantName)
	str("ELISA_LANGUAGE", &c.Language)
	str("ELISA_WHISPER_MODEL", &c.STT.Model)
	str("ELISA_LLM_URL", &c.LLM.BaseURL)
	str("ELISA_LLM_MODEL", &c.LLM.Model)
	str("ELISA_TTS", &c.TTS.Engine)
	str("ELISA_SOCKET", &c.Socket)
	str("ELISA_BUS_URL", &c.BusURL)
	str("ELISA_PROXY", &c.Proxy)
	str("OPENAI_API_KEY", &c.LLM.APIKey)

	if v, ok := lookup("ELISA_RECORD_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ELISA_RECORD_SECONDS: %w", err)
		}
		c.Audio.RecordDuration = time.Duration(n) * time.Second
	}
	if v, ok := lookup("ELISA_TTS_SLOW"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ELISA_TTS_SLOW: %w", err)
		}
		c.TTS.Slow = b
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AssistantName) == "" {
		errs = append(errs, errors.New("assistant_name is empty"))
	}
	if c.Audio.RecordDuration < time.Second {
		errs = append(errs, fmt.Errorf("record_duration %s is below 1s", c.Audio.RecordDuration))
	}
	switch c.TTS.Engine {
	case "gtts", "espeak":
	default:
		errs = append(errs, fmt.Errorf("unknown tts engine %q", c.TTS.Engine))
	}
	for i, cmd := range c.Commands {
		switch cmd.Action {
		case dialogue.ActionLaunch, dialogue.ActionOpen, dialogue.ActionSearch:
		default:
			errs = append(errs, fmt.Errorf("commands[%d]: unknown action %q", i, cmd.Action))
		}
		if cmd.Prefix == "" {
			errs = append(errs, fmt.Errorf("commands[%d]: empty prefix", i))
		}
	}
	return errors.Join(errs...)
}

// Locale returns the dialogue locale for the configured language.
func (c *Config) Locale() dialogue.Locale {
	return dialogue.LocaleFor(c.Language)
}
