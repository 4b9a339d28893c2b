package telegram

import (
	"errors"
	"strings"
)

const (
	defaultPollTimeout = 30
	defaultSendRate    = 20
	defaultSendBurst   = 5
)

// Config holds the bot credentials and outbound limits.
type Config struct {
	Token string
	// PollTimeout is the long polling timeout in seconds.
	PollTimeout int
	// SendRate caps outbound API calls per second.
	SendRate  float64
	SendBurst int
	Debug     bool
}

func (c Config) normalize() (Config, error) {
	c.Token = strings.TrimSpace(c.Token)
	if c.Token == "" {
		return Config{}, errors.New("telegram token is required")
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	if c.SendRate <= 0 {
		c.SendRate = defaultSendRate
	}
	if c.SendBurst <= 0 {
		c.SendBurst = defaultSendBurst
	}
	return c, nil
}
