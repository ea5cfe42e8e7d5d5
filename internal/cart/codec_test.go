package cart

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New()
	c.Add("3", 2)
	c.Add("7", 1)
	c.Add("12", 4)

	decoded := Decode(c.Encode())

	assert.True(t, c.Equal(decoded))
	assert.Equal(t, []string{"3", "7", "12"}, decoded.ProductIDs())
}

func TestEncodeEmptyCart(t *testing.T) {
	c := New()

	token := c.Encode()
	data, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	assert.True(t, Decode(token).Empty())
}

func TestEncodeIsPlainJSONObject(t *testing.T) {
	c := New()
	c.Add("3", 2)
	c.Add("7", 1)

	data, err := base64.URLEncoding.DecodeString(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, `{"3":2,"7":1}`, string(data))
}

func TestDecodeMalformedYieldsEmptyCart(t *testing.T) {
	encode := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}

	tokens := map[string]string{
		"empty":           "",
		"not base64":      "!!not-base64!!",
		"not json":        encode("not json"),
		"truncated":       encode(`{"3":2`),
		"array":           encode(`[1,2,3]`),
		"string value":    encode(`{"3":"two"}`),
		"object value":    encode(`{"3":{}}`),
		"fractional":      encode(`{"3":1.5}`),
		"bare number":     encode(`7`),
		"trailing data":   encode(`{"3":2}]`),
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			assert.True(t, Decode(token).Empty())
		})
	}
}

func TestDecodeDropsNonPositiveQuantities(t *testing.T) {
	token := base64.URLEncoding.EncodeToString([]byte(`{"3":2,"7":0,"9":-1}`))

	c := Decode(token)

	assert.Equal(t, []string{"3"}, c.ProductIDs())
	assert.Equal(t, 2, c.Quantity("3"))
}

func TestDecodeKeepsFirstDuplicateKey(t *testing.T) {
	token := base64.URLEncoding.EncodeToString([]byte(`{"3":2,"3":5}`))

	c := Decode(token)

	assert.Equal(t, []string{"3"}, c.ProductIDs())
	assert.Equal(t, 2, c.Quantity("3"))
}

func TestRoundTripAfterMutations(t *testing.T) {
	c := New()
	c.Add("1", 1)
	c.Add("2", 2)
	c.Update("1", 5)
	c.Remove("2")
	c.Add("3", 1)

	assert.True(t, c.Equal(Decode(c.Encode())))
}
