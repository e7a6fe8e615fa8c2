package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptchaRoundTrip(t *testing.T) {
	id, image, err := GenerateCaptcha()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(image, "data:image/png;base64,"))

	answer := CaptchaAnswer(id)
	require.NotEmpty(t, answer)
	assert.False(t, VerifyCaptcha(id, ""))
	assert.True(t, VerifyCaptcha(id, answer))
	// consumed on verification
	assert.False(t, VerifyCaptcha(id, answer))
}
