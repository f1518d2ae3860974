// Package filter turns user-typed filter text into a MongoDB query document.
//
// The text is MongoDB Extended JSON in relaxed mode, so values JSON cannot
// express natively are written as tagged sub-objects:
//
//	{"_id": {"$oid": "65a1f0c2e4b0a1b2c3d4e5f6"}}
//	{"createdAt": {"$gte": {"$date": "2024-01-01T00:00:00Z"}}}
//
// Recognized tags ($oid, $date, $numberLong, $numberDecimal, $binary, $uuid,
// $regularExpression, $timestamp, ...) decode to native BSON values. Any other
// "$" key, such as a query operator, stays a plain nested key.
package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"mongoextract/internal/domain"
)

// Document is a parsed query document. Key order is preserved as written.
type Document struct {
	d bson.D
}

// Parse decodes text into a Document. Malformed text never yields an empty
// catch-all query: it fails with a FilterSyntax *domain.Error.
func Parse(text string) (Document, error) {
	raw := []byte(strings.TrimSpace(text))
	if len(raw) == 0 {
		return Document{}, syntaxError(errors.New("filter is empty"))
	}
	if err := validateObject(raw); err != nil {
		return Document{}, syntaxError(err)
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return Document{}, syntaxError(fmt.Errorf("extended JSON: %w", err))
	}
	if doc == nil {
		doc = bson.D{}
	}
	return Document{d: doc}, nil
}

// MustParse is Parse for constant filters; it panics on error.
func MustParse(text string) Document {
	doc, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return doc
}

// D returns the document as an ordered BSON document, ready to hand to the driver.
func (d Document) D() bson.D {
	if d.d == nil {
		return bson.D{}
	}
	return d.d
}

// Len returns the number of top-level conditions.
func (d Document) Len() int { return len(d.d) }

// Keys returns the top-level field names in written order.
func (d Document) Keys() []string {
	keys := make([]string, len(d.d))
	for i, e := range d.d {
		keys[i] = e.Key
	}
	return keys
}

// String echoes the document as relaxed Extended JSON.
func (d Document) String() string {
	out, err := bson.MarshalExtJSON(d.D(), false, false)
	if err != nil {
		return fmt.Sprintf("%v", d.d)
	}
	return string(out)
}

// validateObject checks raw is exactly one well-formed JSON object.
// The Extended JSON decoder is more lenient about some malformed input,
// so strict JSON is enforced first.
func validateObject(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		var se *json.SyntaxError
		if errors.As(err, &se) {
			return fmt.Errorf("invalid JSON at offset %d: %s", se.Offset, se.Error())
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("invalid JSON: unexpected end of input at offset %d", len(raw))
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := v.(map[string]any); !ok {
		return fmt.Errorf("filter must be a JSON object, got %s", jsonKind(v))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: unexpected data after object at offset %d", dec.InputOffset())
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func syntaxError(err error) *domain.Error {
	return domain.NewError(domain.FailureFilterSyntax, "parse", err)
}
