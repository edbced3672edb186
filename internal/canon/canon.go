// Package canon implements canonical JSON serialization and content hashing
// (spec.md §4.2, §9): recursively key-sorted, whitespace-free JSON with a
// SHA-256 digest over the canonical bytes. It is implemented once here and
// reused by internal/compiler for both plan and policy hashes, per the
// explicit design note in spec.md §9 against relying on a JSON library's
// default key ordering.
//
// This package is stdlib-only by design: canonical JSON encoding is a small,
// fully specified algorithm (sort keys, drop whitespace, preserve the
// source's numeric literal), and none of the pack's example repos carry a
// dedicated canonicalization library — see DESIGN.md.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal produces the canonical JSON byte sequence for v. v is first
// marshaled through encoding/json (so ordinary Go structs and maps both
// work), then re-decoded with json.Number preserved so the original
// "shortest round-trippable" numeric literal survives canonicalization
// unchanged.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal input: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: decode input: %w", err)
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(t.String())
	case string:
		s, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("canon: marshal string: %w", err)
		}
		buf.Write(s)
	case []any:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("canon: marshal key: %w", err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canon: unsupported value type %T", v)
	}
	return nil
}

// Hash returns the "sha256:<hex>" digest of v's canonical form.
func Hash(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
