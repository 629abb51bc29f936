package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstJSONObjectPlain(t *testing.T) {
	span, err := firstJSONObject(`{"original": "hello", "translated": "namaste"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"original": "hello", "translated": "namaste"}`, span)
}

func TestFirstJSONObjectSkipsLeadingProse(t *testing.T) {
	span, err := firstJSONObject(`Here is the result: {"original": "hello", "translated": "namaste"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"original": "hello", "translated": "namaste"}`, span)
}

func TestFirstJSONObjectIgnoresTrailingProseWithBraces(t *testing.T) {
	// A greedy first-{-to-last-} match would swallow the trailing prose.
	span, err := firstJSONObject(`{"original": "a", "translated": "b"} and also {notes}`)
	require.NoError(t, err)
	assert.Equal(t, `{"original": "a", "translated": "b"}`, span)
}

func TestFirstJSONObjectNestedObjects(t *testing.T) {
	span, err := firstJSONObject(`prefix {"outer": {"inner": 1}} suffix`)
	require.NoError(t, err)
	assert.Equal(t, `{"outer": {"inner": 1}}`, span)
}

func TestFirstJSONObjectBracesInsideStrings(t *testing.T) {
	span, err := firstJSONObject(`{"original": "curly } brace", "translated": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"original": "curly } brace", "translated": "x"}`, span)
}

func TestFirstJSONObjectEscapedQuotes(t *testing.T) {
	span, err := firstJSONObject(`{"original": "he said \"}\"", "translated": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"original": "he said \"}\"", "translated": "x"}`, span)
}

func TestFirstJSONObjectNoObject(t *testing.T) {
	_, err := firstJSONObject("the model returned only prose")
	assert.ErrorIs(t, err, errNoJSONObject)

	_, err = firstJSONObject("")
	assert.ErrorIs(t, err, errNoJSONObject)
}

func TestFirstJSONObjectUnterminated(t *testing.T) {
	_, err := firstJSONObject(`{"original": "hello"`)
	assert.ErrorIs(t, err, errNoJSONObject)
}
