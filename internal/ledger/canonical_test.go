package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zebra": int64(1),
		"alpha": int64(2),
		"mid":   "x",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":"x","zebra":1}`, string(got))
}

func TestMarshalCanonicalNested(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"list": []any{int64(1), "two", true},
		"obj":  map[string]any{"b": false, "a": uint8(7)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"list":[1,"two",true],"obj":{"a":7,"b":false}}`, string(got))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("<a> & </a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// e + combining acute normalizes to the precomposed form.
	got, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonicalRejectsFloatsAndNulls(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	payload := map[string]any{
		"amount": int64(300),
		"option": uint8(1),
		"meta":   map[string]any{"k": "v"},
	}
	first, err := MarshalCanonical(payload)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		again, err := MarshalCanonical(payload)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
