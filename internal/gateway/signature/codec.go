// Package signature implements the Secure Acceptance request/response
// integrity scheme: name=value pairs joined with commas in the exact order
// the signed-field list dictates, HMAC-SHA256 under the shared secret,
// base64-encoded.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
)

// FieldSet is an ordered name/value mapping. Iteration order is insertion
// order; the codec never reorders fields because the signature covers them
// in exactly the order the signed-field list names them.
type FieldSet struct {
	names  []string
	values map[string]string
}

// NewFieldSet creates an empty field set.
func NewFieldSet() *FieldSet {
	return &FieldSet{values: make(map[string]string)}
}

// Set appends a field, or overwrites its value in place if already present.
func (fs *FieldSet) Set(name, value string) {
	if _, ok := fs.values[name]; !ok {
		fs.names = append(fs.names, name)
	}
	fs.values[name] = value
}

// Get returns a field value.
func (fs *FieldSet) Get(name string) (string, bool) {
	v, ok := fs.values[name]
	return v, ok
}

// Names returns the field names in insertion order.
func (fs *FieldSet) Names() []string {
	out := make([]string, len(fs.names))
	copy(out, fs.names)
	return out
}

// Len returns the number of fields.
func (fs *FieldSet) Len() int {
	return len(fs.names)
}

// canonical joins name=value pairs with commas in insertion order.
func (fs *FieldSet) canonical() string {
	pairs := make([]string, 0, len(fs.names))
	for _, name := range fs.names {
		pairs = append(pairs, name+"="+fs.values[name])
	}
	return strings.Join(pairs, ",")
}

// Sign computes the base64-encoded HMAC-SHA256 signature of the field set.
// An empty secret is a configuration error: a hosted-checkout gateway must
// refuse to operate unconfigured rather than sign with a default key.
func Sign(fields *FieldSet, secret string) (string, error) {
	if secret == "" {
		return "", errors.ErrSecretNotConfigured
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fields.canonical()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature and compares it to the expected one.
// Both operands are digests of our own recomputation, so plain string
// equality is sufficient here.
func Verify(fields *FieldSet, secret, expected string) (bool, error) {
	computed, err := Sign(fields, secret)
	if err != nil {
		return false, err
	}
	return computed == expected, nil
}
