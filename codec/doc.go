// Package codec converts values to and from JSON wire bodies.
//
// A Codec is built once from Options and is safe for concurrent use. It runs
// on a frozen json-iterator configuration with per-codec extensions, so two
// codecs with different options never share state:
//
//	c := codec.New(codec.DefaultOptions())
//	body, err := c.Encode(widget)
//	err = c.Decode(body, &widget)
//
// DefaultOptions mirrors web-style JSON: camelCase member names, null members
// omitted on write, case-insensitive member matching and numbers accepted
// from JSON strings on read. Explicit `json` tags always win over the naming
// policy.
package codec
