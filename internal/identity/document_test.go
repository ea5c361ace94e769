package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"compact", `{"a":1,"b":"x","c":[1,2]}`},
		{"indented four", "{\n    \"a\": 1,\n    \"b\": {\n        \"c\": true\n    }\n}"},
		{"indented tab", "{\n\t\"a\": 1,\n\t\"b\": []\n}\n"},
		{"empty", `{}`},
		{"escaped keys", `{"k\u0000\ud800x":1,"caf\u00e9":"\ud800","a\/b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseDocument([]byte(tt.in))
			require.NoError(t, err)
			out, err := doc.encode()
			require.NoError(t, err)
			assert.Equal(t, tt.in, string(out))
		})
	}
}

func TestDocumentSetString(t *testing.T) {
	doc, err := parseDocument([]byte(`{"a":1,"k":"old","k":"dup"}`))
	require.NoError(t, err)

	require.NoError(t, doc.setString("k", "new"))
	require.NoError(t, doc.setString("z", "appended"))

	out, err := doc.encode()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"k":"new","k":"new","z":"appended"}`, string(out))
}

func TestDocumentSetString_KeepsKeyBytes(t *testing.T) {
	in := "{\n  \"k\\u0000\\ud800x\": 1,\n  \"telemetry.machineId\": \"old\"\n}"
	doc, err := parseDocument([]byte(in))
	require.NoError(t, err)
	require.Equal(t, "k\x00\ufffdx", doc.members[0].key)

	require.NoError(t, doc.setString("telemetry.machineId", "new"))
	out, err := doc.encode()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"k\\u0000\\ud800x\": 1,\n  \"telemetry.machineId\": \"new\"\n}", string(out))
}

func TestDetectIndent(t *testing.T) {
	assert.Equal(t, "", detectIndent([]byte(`{"a":1}`)))
	assert.Equal(t, "  ", detectIndent([]byte("{\n  \"a\": 1\n}")))
	assert.Equal(t, "    ", detectIndent([]byte("{\n\"a\": 1\n}")))
}
