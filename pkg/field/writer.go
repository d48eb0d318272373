package field

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by NewWriter.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatINP  = "inp"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatYAML, FormatINP}

// Writer is a Sink that serializes requests to a stream. Close flushes any
// buffered document state; it does not close the underlying stream.
type Writer interface {
	Sink
	Close() error
}

// ParseFormat normalizes a format name, accepting "yml" and "abaqus" as
// aliases and "" as JSON.
func ParseFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatINP, "abaqus":
		return FormatINP, nil
	}
	return "", fmt.Errorf("unknown output format %q, expected one of %s", format, strings.Join(Formats, ", "))
}

// NewWriter returns a writer for format.
func NewWriter(format string, w io.Writer) (Writer, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatINP:
		return NewINPWriter(w), nil
	}
	return NewJSONWriter(w), nil
}

// JSONWriter writes one JSON document per request.
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter returns a JSONWriter on w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONWriter{enc: enc}
}

// Publish implements Sink.
func (jw *JSONWriter) Publish(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := jw.enc.Encode(req); err != nil {
		return fmt.Errorf("encoding %s as json: %w", req.Field.Name, err)
	}
	return nil
}

// Close implements Writer.
func (jw *JSONWriter) Close() error { return nil }

// YAMLWriter writes a YAML stream with one document per request.
type YAMLWriter struct {
	enc *yaml.Encoder
}

// NewYAMLWriter returns a YAMLWriter on w.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAMLWriter{enc: enc}
}

// Publish implements Sink.
func (yw *YAMLWriter) Publish(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := yw.enc.Encode(req); err != nil {
		return fmt.Errorf("encoding %s as yaml: %w", req.Field.Name, err)
	}
	return nil
}

// Close implements Writer.
func (yw *YAMLWriter) Close() error {
	return yw.enc.Close()
}

// INPWriter writes Abaqus keyword blocks: a distribution table, the
// distribution holding one row per element, and the orientation that
// references it.
type INPWriter struct {
	w io.Writer
}

// NewINPWriter returns an INPWriter on w.
func NewINPWriter(w io.Writer) *INPWriter {
	return &INPWriter{w: w}
}

// Publish implements Sink.
func (iw *INPWriter) Publish(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var b strings.Builder
	name := req.Field.Name
	table := name + "_Table"

	fmt.Fprintf(&b, "** Part: %s\n", req.Part)
	if req.Field.Description != "" {
		fmt.Fprintf(&b, "** %s\n", req.Field.Description)
	}
	if req.Partial {
		fmt.Fprintf(&b, "** %d element(s) use the default orientation\n", len(req.Skipped))
	}
	fmt.Fprintf(&b, "*Distribution Table, name=%s\n", table)
	b.WriteString("coord3D, coord3D\n")
	fmt.Fprintf(&b, "*Distribution, name=%s, location=ELEMENT, Table=%s\n", name, table)
	writeRow(&b, "", req.Field.DefaultValues)
	for i, label := range req.Field.Labels {
		writeRow(&b, strconv.Itoa(label), req.Field.Values[i])
	}
	fmt.Fprintf(&b, "*Orientation, name=Ori-%s, system=RECTANGULAR\n", name)
	fmt.Fprintf(&b, "%s\n", req.Orientation.FieldName)
	fmt.Fprintf(&b, "1, %s\n", formatFloat(req.Orientation.Angle))

	if _, err := io.WriteString(iw.w, b.String()); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Close implements Writer.
func (iw *INPWriter) Close() error { return nil }

func writeRow(b *strings.Builder, label string, v [DataWidth]float64) {
	b.WriteString(label)
	for _, x := range v {
		b.WriteString(", ")
		b.WriteString(formatFloat(x))
	}
	b.WriteByte('\n')
}

// formatFloat prints x the way keyword files expect: shortest round-trip
// form, always with a decimal point.
func formatFloat(x float64) string {
	if x == 0 {
		x = 0 // normalizes -0
	}
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += "."
	}
	return s
}
