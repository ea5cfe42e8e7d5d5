package cart

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
)

// The token format is a URL-safe base64 encoding of the JSON object
// {"<product_id>":<quantity>,...}, written in insertion order. The same
// scheme the order cursor uses, applied to the cart cookie.

// Encode serializes the cart into an opaque token suitable for a cookie
// value.
func (c *Cart) Encode() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(id)
		buf.Write(key)
		buf.WriteByte(':')
		qty, _ := json.Marshal(c.quantities[id])
		buf.Write(qty)
	}
	buf.WriteByte('}')
	return base64.URLEncoding.EncodeToString(buf.Bytes())
}

// Decode parses a cart token. A missing, malformed, or truncated token
// yields an empty cart; callers never see a decode failure. Entries with
// non-positive quantities are dropped so the quantity >= 1 invariant
// holds for decoded carts too.
func Decode(token string) *Cart {
	c := New()
	if token == "" {
		return c
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return New()
	}

	// Walk the token stream instead of unmarshalling into a map so the
	// original key order survives the round trip.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return New()
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return New()
		}
		key, ok := keyTok.(string)
		if !ok {
			return New()
		}

		valTok, err := dec.Token()
		if err != nil {
			return New()
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return New()
		}
		qty, err := num.Int64()
		if err != nil {
			return New()
		}

		if qty > 0 {
			if _, exists := c.quantities[key]; !exists {
				c.insert(key, int(qty))
			}
		}
	}

	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return New()
	}
	if _, err := dec.Token(); err != io.EOF {
		return New()
	}

	return c
}
