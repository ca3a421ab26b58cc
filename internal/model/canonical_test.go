package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"zeta":  "z",
		"alpha": "a",
		"mid":   1,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"a","mid":1,"zeta":"z"}`, string(out))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"q": "a<b&c>d"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"a<b&c>d"}`, string(out))
}

func TestMarshalCanonicalForbidsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)

	_, err = MarshalCanonical(3.14)
	assert.Error(t, err)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "é" as decomposed e + combining acute must hash like precomposed é.
	decomposed, err := MarshalCanonical("é")
	require.NoError(t, err)
	precomposed, err := MarshalCanonical("é")
	require.NoError(t, err)
	assert.Equal(t, precomposed, decomposed)
}

func TestMarshalCanonicalScalarsAndArrays(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{false, "false"},
		{int64(42), "42"},
		{[]any{"b", "a"}, `["b","a"]`}, // arrays keep order
		{[]string{"x"}, `["x"]`},
		{Attributes{"name": "n"}, `{"name":"n"}`},
	}
	for _, tc := range cases {
		out, err := MarshalCanonical(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(out))
	}
}

func TestMarshalCanonicalRejectsUnknownTypes(t *testing.T) {
	_, err := MarshalCanonical(struct{ X int }{1})
	assert.Error(t, err)
}
