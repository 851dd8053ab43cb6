package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// DomainPair prefixes pair-decision cache keys. The version suffix allows
// the line format to change without colliding with old decisions.
const DomainPair = "nasprint/pair/v1"

// MarshalCanonical produces canonical JSON for a flat object of string and
// integer values: keys sorted, strings NFC-normalized, no HTML escaping.
func MarshalCanonical(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := canonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		switch v := obj[k].(type) {
		case string:
			vb, err := canonicalString(v)
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", k, err)
			}
			buf.Write(vb)
		case int:
			fmt.Fprintf(&buf, "%d", v)
		case int64:
			fmt.Fprintf(&buf, "%d", v)
		case bool:
			fmt.Fprintf(&buf, "%t", v)
		default:
			return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func canonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PairKey identifies an unordered pair of QSOs by their canonical text.
// PairKey(a, b) and PairKey(b, a) are identical.
type PairKey struct {
	Hash  string
	Line1 string
	Line2 string
}

// NewPairKey builds the order-independent key for two QSOs.
func NewPairKey(a, b *QSO) (PairKey, error) {
	l1, l2 := a.Line(), b.Line()
	if l2 < l1 {
		l1, l2 = l2, l1
	}
	data, err := MarshalCanonical(map[string]any{"line1": l1, "line2": l2})
	if err != nil {
		return PairKey{}, fmt.Errorf("pair key: %w", err)
	}
	return PairKey{Hash: hashWithDomain(DomainPair, data), Line1: l1, Line2: l2}, nil
}
