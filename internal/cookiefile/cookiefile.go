// Package cookiefile reads and writes cookie records in interchange
// formats: a JSON dump of the stored records, and the Netscape
// cookies.txt format browsers and curl exchange.
package cookiefile

import (
	"errors"

	"github.com/artpar/biscuit/internal/jar"
)

// Common errors
var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrParseError    = errors.New("parse error")
)

// Format represents a supported interchange format.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatJSON     Format = "json"
	FormatNetscape Format = "netscape"
)

// Codec reads and writes cookie records in one interchange format.
type Codec interface {
	// Name returns the name of this codec.
	Name() string

	// Format returns the format this codec handles.
	Format() Format

	// FileExtension returns the file extension for exported files.
	FileExtension() string

	// Detect checks if the content matches this codec's format.
	Detect(content []byte) bool

	// Encode serializes the records.
	Encode(recs []*jar.Record) ([]byte, error)

	// Decode parses the content into records.
	Decode(content []byte) ([]*jar.Record, error)
}

// codecs in detection order. JSON first: a Netscape file never opens
// with a bracket.
var codecs = []Codec{&jsonCodec{}, &netscapeCodec{}}

// ByFormat returns the codec handling the format.
func ByFormat(format Format) (Codec, bool) {
	for _, c := range codecs {
		if c.Format() == format {
			return c, true
		}
	}
	return nil, false
}

// Detect returns the codec whose format matches the content.
func Detect(content []byte) (Codec, bool) {
	for _, c := range codecs {
		if c.Detect(content) {
			return c, true
		}
	}
	return nil, false
}

// Decode parses content in the named format, detecting the format
// first when it is FormatAuto.
func Decode(content []byte, format Format) ([]*jar.Record, error) {
	var (
		codec Codec
		ok    bool
	)
	if format == FormatAuto {
		codec, ok = Detect(content)
	} else {
		codec, ok = ByFormat(format)
	}
	if !ok {
		return nil, ErrInvalidFormat
	}
	return codec.Decode(content)
}

// Encode serializes records in the named format.
func Encode(recs []*jar.Record, format Format) ([]byte, error) {
	codec, ok := ByFormat(format)
	if !ok {
		return nil, ErrInvalidFormat
	}
	return codec.Encode(recs)
}
