package cookiefile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/artpar/biscuit/internal/jar"
)

// jsonCodec dumps records as a JSON array. This is the full-fidelity
// format: every record field round-trips, including origin URI and
// timestamps.
type jsonCodec struct{}

func (c *jsonCodec) Name() string {
	return "JSON"
}

func (c *jsonCodec) Format() Format {
	return FormatJSON
}

func (c *jsonCodec) FileExtension() string {
	return ".json"
}

func (c *jsonCodec) Detect(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (c *jsonCodec) Encode(recs []*jar.Record) ([]byte, error) {
	if recs == nil {
		recs = []*jar.Record{}
	}
	return json.MarshalIndent(recs, "", "  ")
}

func (c *jsonCodec) Decode(content []byte) ([]*jar.Record, error) {
	var recs []*jar.Record
	if err := json.Unmarshal(content, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	for i, rec := range recs {
		if rec == nil || rec.Name == "" {
			return nil, fmt.Errorf("%w: record %d has no name", ErrParseError, i)
		}
	}
	return recs, nil
}
