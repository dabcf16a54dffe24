package codec

import (
	"fmt"
	"strings"
	"unicode"
)

// NamingPolicy selects how Go field names map to JSON member names.
type NamingPolicy int

const (
	// NamingCamelCase lowercases the leading capital run: UserID -> userID, URLPath -> urlPath.
	NamingCamelCase NamingPolicy = iota
	// NamingAsIs keeps the Go field name.
	NamingAsIs
	// NamingSnakeCase produces lower_snake_case: UserID -> user_id.
	NamingSnakeCase
)

// String returns the policy name as used in configuration files.
func (p NamingPolicy) String() string {
	switch p {
	case NamingCamelCase:
		return "camel"
	case NamingAsIs:
		return "as_is"
	case NamingSnakeCase:
		return "snake"
	default:
		return "unknown"
	}
}

// ParseNamingPolicy parses a policy name ("camel", "as_is", "snake").
func ParseNamingPolicy(s string) (NamingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "camel", "camelcase":
		return NamingCamelCase, nil
	case "as_is", "asis", "none":
		return NamingAsIs, nil
	case "snake", "snake_case":
		return NamingSnakeCase, nil
	default:
		return NamingCamelCase, fmt.Errorf("codec: unknown naming policy %q", s)
	}
}

// Options configures a Codec.
type Options struct {
	// Naming is the member naming policy. Defaults to camelCase.
	Naming NamingPolicy `yaml:"-" mapstructure:"-"`
	// NamingName is the textual form of Naming used in config files.
	NamingName string `yaml:"naming" mapstructure:"naming"`
	// OmitNull skips nil pointer, map, slice and interface members on write.
	OmitNull bool `yaml:"omit_null" mapstructure:"omit_null"`
	// CaseInsensitive matches member names ignoring case on read.
	CaseInsensitive bool `yaml:"case_insensitive" mapstructure:"case_insensitive"`
	// LenientNumbers accepts numbers encoded as JSON strings on read.
	LenientNumbers bool `yaml:"lenient_numbers" mapstructure:"lenient_numbers"`
}

// DefaultOptions returns camelCase naming, null omission, case-insensitive
// matching and lenient numbers.
func DefaultOptions() Options {
	return Options{
		Naming:          NamingCamelCase,
		NamingName:      NamingCamelCase.String(),
		OmitNull:        true,
		CaseInsensitive: true,
		LenientNumbers:  true,
	}
}

// ApplyDefaults resolves NamingName into Naming.
func (o *Options) ApplyDefaults() {
	if o.NamingName == "" {
		o.NamingName = o.Naming.String()
		return
	}
	if p, err := ParseNamingPolicy(o.NamingName); err == nil {
		o.Naming = p
	}
}

// Validate checks that the naming policy name is known.
func (o *Options) Validate() error {
	if o.NamingName == "" {
		return nil
	}
	_, err := ParseNamingPolicy(o.NamingName)
	return err
}

func (p NamingPolicy) translate(name string) string {
	switch p {
	case NamingCamelCase:
		return camelCase(name)
	case NamingSnakeCase:
		return snakeCase(name)
	default:
		return name
	}
}

// camelCase lowercases the leading run of capitals, leaving the last capital
// of the run alone when it starts the next word.
func camelCase(name string) string {
	if name == "" || !unicode.IsUpper(rune(name[0])) {
		return name
	}
	runes := []rune(name)
	for i := range runes {
		if i == 1 && !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && !unicode.IsUpper(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
