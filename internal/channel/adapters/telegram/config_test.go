package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalize(t *testing.T) {
	t.Parallel()

	_, err := Config{Token: "  "}.normalize()
	assert.Error(t, err)

	cfg, err := Config{Token: " 123:abc "}.normalize()
	require.NoError(t, err)
	assert.Equal(t, Config{Token: "123:abc", PollTimeout: 30, SendRate: 20, SendBurst: 5}, cfg)

	cfg, err = Config{Token: "t", PollTimeout: 5, SendRate: 1.5, SendBurst: 2, Debug: true}.normalize()
	require.NoError(t, err)
	assert.Equal(t, Config{Token: "t", PollTimeout: 5, SendRate: 1.5, SendBurst: 2, Debug: true}, cfg)
}
