package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/nodeflow/pkg/ids"
)

// Marshal returns the canonical JSON encoding of d: normalized, object keys
// sorted at every level, indented with two spaces, HTML characters unescaped
// and a trailing newline.
func Marshal(d *Document) ([]byte, error) {
	raw, err := json.Marshal(Normalize(d))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	// Struct fields encode in declaration order; a generic round trip turns
	// every object into a map, whose keys encoding/json sorts.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes a document and returns it in normalized form. Unknown
// fields, trailing data, an unsupported schema version and an invalid graph
// id are all rejected with a *ParseError.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var d Document
	if err := dec.Decode(&d); err != nil {
		perr := &ParseError{Err: err}
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syn):
			perr.Offset = syn.Offset
		case errors.As(err, &typ):
			perr.Offset = typ.Offset
		}
		return nil, perr
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Offset: dec.InputOffset(), Err: errors.New("unexpected data after document")}
	}
	if err := checkHeader(&d); err != nil {
		return nil, err
	}
	return Normalize(&d), nil
}

func checkHeader(d *Document) error {
	if d.SchemaVersion != SchemaVersion {
		return &ParseError{Path: "schemaVersion", Err: fmt.Errorf("unsupported version %q, want %q", d.SchemaVersion, SchemaVersion)}
	}
	if _, err := ids.ParseGraphID(string(d.GraphID)); err != nil {
		return &ParseError{Path: "graphId", Err: err}
	}
	return nil
}

// Read parses a document from r.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// Write writes the canonical encoding of d to w.
func Write(w io.Writer, d *Document) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadFile parses the document stored at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// WriteFile writes the canonical encoding of d to path.
func WriteFile(path string, d *Document) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Hash returns the hex SHA-256 of the canonical encoding of d.
func Hash(d *Document) (string, error) {
	data, err := Marshal(d)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
