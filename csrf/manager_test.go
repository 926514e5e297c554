package csrf

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/gatekeeper/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateValidateRoundTrip(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)
	now := time.Unix(1_700_000_000, 0)
	manager.nowFunc = func() time.Time { return now }

	token, err := manager.Generate("sess-42")
	require.NoError(t, err)

	assert.True(t, manager.Validate(token, "sess-42"))

	// Expired one second past the TTL.
	now = now.Add(3601 * time.Second)
	assert.False(t, manager.Validate(token, "sess-42"))
}

func TestValidateRejectsOtherSession(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)

	token, err := manager.Generate("sess-42")
	require.NoError(t, err)

	assert.False(t, manager.Validate(token, "sess-99"))
}

func TestValidateStillValidWithinTTL(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)
	now := time.Unix(1_700_000_000, 0)
	manager.nowFunc = func() time.Time { return now }

	token, err := manager.Generate("sess-42")
	require.NoError(t, err)

	now = now.Add(3600 * time.Second)
	assert.True(t, manager.Validate(token, "sess-42"))
}

func TestValidateRejectsFutureTimestamp(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)
	now := time.Unix(1_700_000_000, 0)
	manager.nowFunc = func() time.Time { return now }

	token, err := manager.Generate("sess-42")
	require.NoError(t, err)

	// A token dated beyond the skew allowance never enters its validity
	// window, however long it would otherwise live.
	now = now.Add(-2 * time.Minute)
	assert.False(t, manager.Validate(token, "sess-42"))

	// Thirty seconds of clock drift is tolerated.
	now = now.Add(90 * time.Second)
	assert.True(t, manager.Validate(token, "sess-42"))
}

func TestValidateFailsClosedOnGarbage(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)

	for _, token := range []string{
		"",
		"not-a-token",
		"one.two.three",
		"###.###",
		"eyJzaWQiOiJzZXNzLTQyIn0.AAAA", // valid framing, bogus signature
	} {
		assert.False(t, manager.Validate(token, "sess-42"), "token %q should not validate", token)
	}
}

func TestValidateRejectsTamperedPayload(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)

	token, err := manager.Generate("sess-42")
	require.NoError(t, err)

	other, err := manager.Generate("sess-99")
	require.NoError(t, err)

	// Splice the sess-99 payload onto the sess-42 signature.
	spliced := strings.Split(other, ".")[0] + "." + strings.Split(token, ".")[1]
	assert.False(t, manager.Validate(spliced, "sess-99"))
}

func TestValidateRejectsDifferentSecret(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)
	otherManager := NewManager("ffffffffffffffffffffffffffffffff", time.Hour)

	token, err := otherManager.Generate("sess-42")
	require.NoError(t, err)

	assert.False(t, manager.Validate(token, "sess-42"))
}

func TestValidateRequest(t *testing.T) {
	manager := NewManager(testSecret, time.Hour)

	token, err := manager.Generate("sess-42")
	require.NoError(t, err)

	r := httptest.NewRequest("POST", "/api/favorites", nil)
	require.ErrorIs(t, manager.ValidateRequest(r, "sess-42"), core.ErrMissingCsrfToken)

	r.Header.Set(HeaderName, "bogus")
	require.ErrorIs(t, manager.ValidateRequest(r, "sess-42"), core.ErrInvalidCsrfToken)

	r.Header.Set(HeaderName, token)
	require.NoError(t, manager.ValidateRequest(r, "sess-42"))
}
