package services

import (
	"strings"
	"testing"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nagarseva/internal/config"
)

func newTestCaptchaService() *CaptchaService {
	cfg := &config.Config{
		Captcha: config.CaptchaConfig{TTL: time.Minute, Length: 5},
	}
	return NewCaptchaService(cfg)
}

func TestCaptchaGenerateIssuesImage(t *testing.T) {
	svc := newTestCaptchaService()

	challenge, err := svc.Generate()
	require.NoError(t, err)

	assert.NotEmpty(t, challenge.CaptchaID)
	assert.True(t, strings.HasPrefix(challenge.CaptchaImage, "data:image/png;base64,"))

	// Refresh issues an independent challenge
	second, err := svc.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, challenge.CaptchaID, second.CaptchaID)
}

func TestCaptchaVerifyIsSingleUse(t *testing.T) {
	svc := newTestCaptchaService()
	svc.store = base64Captcha.NewMemoryStore(10, time.Minute)
	require.NoError(t, svc.store.Set("ch-1", "k7m2p"))

	assert.True(t, svc.Verify("ch-1", "k7m2p"))
	// Consumed: the same answer no longer verifies
	assert.False(t, svc.Verify("ch-1", "k7m2p"))
}

func TestCaptchaVerifyCaseInsensitive(t *testing.T) {
	svc := newTestCaptchaService()
	require.NoError(t, svc.store.Set("ch-2", "k7m2p"))

	assert.True(t, svc.Verify("ch-2", "  K7M2P "))
}

func TestCaptchaVerifyWrongAnswerConsumes(t *testing.T) {
	svc := newTestCaptchaService()
	require.NoError(t, svc.store.Set("ch-3", "k7m2p"))

	assert.False(t, svc.Verify("ch-3", "wrong"))
	// The failed attempt burned the challenge
	assert.False(t, svc.Verify("ch-3", "k7m2p"))
}

func TestCaptchaVerifyRejectsEmpty(t *testing.T) {
	svc := newTestCaptchaService()

	assert.False(t, svc.Verify("", "abc"))
	assert.False(t, svc.Verify("ch-4", "   "))
}
