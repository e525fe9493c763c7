// Package cuid2 generates short collision-resistant ids such as request ids.
package cuid2

import (
	"crypto/rand"
	"io"
	"strings"
	"time"
)

// alphabet is base62, ordered so encoded timestamps sort lexicographically.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	timestampLength     = 6
	defaultRandomLength = 18
)

// Generator produces ids of the form "<prefix>_<timestamp><random>".
// The zero value is not usable; use NewGenerator.
type Generator struct {
	random       io.Reader
	now          func() time.Time
	randomLength int
	sortable     bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithRandomLength sets the number of random characters.
func WithRandomLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.randomLength = n
		}
	}
}

// Unsorted drops the timestamp prefix.
func Unsorted() Option {
	return func(g *Generator) { g.sortable = false }
}

// NewGenerator returns a time-sortable generator backed by crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		random:       rand.Reader,
		now:          time.Now,
		randomLength: defaultRandomLength,
		sortable:     true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var defaultGenerator = NewGenerator()

// New returns a time-sortable id with the given prefix, e.g. "req_1rK5iqX3b...".
func New(prefix string) string {
	return defaultGenerator.New(prefix)
}

// New returns an id with the given prefix. An empty prefix omits the separator.
func (g *Generator) New(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1 + timestampLength + g.randomLength)
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('_')
	}
	if g.sortable {
		b.WriteString(EncodeTimestamp(g.now()))
	}
	b.WriteString(g.randomString(g.randomLength))
	return b.String()
}

// EncodeTimestamp encodes t's Unix seconds as six base62 characters.
// Values sort in time order until roughly the year 3700.
func EncodeTimestamp(t time.Time) string {
	n := t.Unix()
	if n < 0 {
		n = 0
	}
	out := make([]byte, timestampLength)
	for i := timestampLength - 1; i >= 0; i-- {
		out[i] = alphabet[n%62]
		n /= 62
	}
	return string(out)
}

// randomString draws length uniformly distributed base62 characters.
// Each byte is reduced to 6 bits; values 62 and 63 are rejected.
func (g *Generator) randomString(length int) string {
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/8+4)
	for len(out) < length {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			panic("cuid2: failed to read random bytes: " + err.Error())
		}
		for _, v := range buf {
			v &= 0x3f
			if v >= 62 {
				continue
			}
			out = append(out, alphabet[v])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}
