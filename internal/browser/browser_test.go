package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsLaunchFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"missing binary", fmt.Errorf(`exec: "google-chrome": executable file not found in $PATH`), true},
		{"missing path", errors.New("fork/exec /usr/bin/chromium: no such file or directory"), true},
		{"nav deadline", context.DeadlineExceeded, false},
		{"page error", errors.New("page load error net::ERR_NAME_NOT_RESOLVED"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isLaunchFailure(tt.err))
		})
	}
}

func TestNextUserAgentRotates(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < len(userAgents)*2; i++ {
		ua := nextUserAgent()
		require.Contains(t, userAgents, ua)
		seen[ua] = true
	}
	require.Len(t, seen, len(userAgents))
}

func TestDataAttributesScriptInjectsSelector(t *testing.T) {
	script := dataAttributesScript([]string{"[data-isbn]", "[data-title]"})
	require.Contains(t, script, `"[data-isbn], [data-title]"`)
	require.NotContains(t, script, "%s")
}

func TestAuthorScriptInjectsCascades(t *testing.T) {
	script := authorScript([]string{`.autor a`}, []string{`#beschreibung`})
	require.Contains(t, script, `[".autor a"]`)
	require.Contains(t, script, `["#beschreibung"]`)
	require.NotContains(t, script, "%s")

	// Empty cascades still produce valid array literals.
	script = authorScript(nil, nil)
	require.Contains(t, script, `[]`)
	require.NotContains(t, script, "null")
}

func TestConsentScriptQuotesSelectors(t *testing.T) {
	script := consentScript([]string{`button[data-test="consent-accept-all"]`})
	// The double quotes inside the selector must survive as escaped JSON.
	require.Contains(t, script, `"button[data-test=\"consent-accept-all\"]"`)
	for _, phrase := range []string{"alle akzeptieren", "zustimmen", "einverstanden", "accept all"} {
		require.Contains(t, script, phrase)
	}
}

func TestNewSessionHonorsCanceledContext(t *testing.T) {
	b := New(Options{Headless: true, NavTimeout: time.Second, RenderWait: time.Second}, zap.NewNop())
	defer b.Close()

	require.False(t, b.Ready())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.NewSession(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
