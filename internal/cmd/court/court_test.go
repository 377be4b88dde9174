package court

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courtdomain "github.com/louisbranch/decicourt/internal/services/court/domain/court"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("court", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, ":8090", cfg.ListenAddr())
	assert.Equal(t, "default", cfg.CourtID)
	assert.Equal(t, "crypto", cfg.Selection)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, courtdomain.DefaultParams(), cfg.Params())
	assert.False(t, cfg.Identity.Enabled())
	assert.False(t, cfg.Journal.Enabled())
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("DECICOURT_JURY_SIZE", "5")
	t.Setenv("DECICOURT_APPEAL_JURY_SIZE", "9")
	t.Setenv("DECICOURT_COMMIT_DURATION", "1h")
	t.Setenv("DECICOURT_EVENT_HMAC_KEY", "secret")

	fs := flag.NewFlagSet("court", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9999", "-court-id", "guild", "-selection", "seeded"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr())
	assert.Equal(t, "guild", cfg.CourtID)
	assert.Equal(t, "seeded", cfg.Selection)

	params := cfg.Params()
	assert.Equal(t, 5, params.JurySize)
	assert.Equal(t, 9, params.AppealJurySize)
	assert.Equal(t, time.Hour, params.CommitDuration)
	require.NoError(t, params.Validate())
	assert.True(t, cfg.Journal.Enabled())
}

func TestParseConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("DECICOURT_FILING_FEE", "-1")
	fs := flag.NewFlagSet("court", flag.ContinueOnError)
	_, err := ParseConfig(fs, nil)
	require.Error(t, err)
}
