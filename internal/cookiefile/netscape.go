package cookiefile

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/biscuit/internal/jar"
)

const (
	netscapeHeader = "# Netscape HTTP Cookie File"

	// httpOnlyPrefix marks an HttpOnly cookie on its domain column.
	// Curl and the browsers write it this way so the line still reads
	// as a comment to older parsers.
	httpOnlyPrefix = "#HttpOnly_"
)

// netscapeCodec reads and writes the tab-separated cookies.txt format:
//
//	domain	include-subdomains	path	secure	expiry	name	value
//
// The format is lossy: SameSite, the origin URI, and the stored
// timestamps do not survive a round trip. Records with neither a
// domain nor a parseable origin are dropped on encode.
type netscapeCodec struct{}

func (c *netscapeCodec) Name() string {
	return "Netscape"
}

func (c *netscapeCodec) Format() Format {
	return FormatNetscape
}

func (c *netscapeCodec) FileExtension() string {
	return ".txt"
}

func (c *netscapeCodec) Detect(content []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, httpOnlyPrefix) {
			if strings.Contains(line, "Netscape HTTP Cookie File") {
				return true
			}
			continue
		}
		return len(strings.Split(line, "\t")) == 7
	}
	return false
}

func (c *netscapeCodec) Encode(recs []*jar.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(netscapeHeader + "\n")
	buf.WriteString("# https://curl.se/docs/http-cookies.html\n\n")

	for _, rec := range recs {
		domain := rec.Domain
		if domain == "" {
			domain = hostOf(rec.URI)
		}
		if domain == "" || rec.Name == "" {
			continue
		}

		path := rec.Path
		if path == "" {
			path = "/"
		}

		var expiry int64
		if !rec.Expiry.IsZero() {
			expiry = rec.Expiry.Unix()
		}

		prefix := ""
		if rec.HttpOnly {
			prefix = httpOnlyPrefix
		}

		fields := []string{
			prefix + domain,
			flag(strings.HasPrefix(domain, ".")),
			path,
			flag(rec.Secure),
			strconv.FormatInt(expiry, 10),
			rec.Name,
			rec.Value,
		}
		buf.WriteString(strings.Join(fields, "\t") + "\n")
	}
	return buf.Bytes(), nil
}

func (c *netscapeCodec) Decode(content []byte) ([]*jar.Record, error) {
	var recs []*jar.Record

	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want 7", ErrParseError, lineNo, len(fields))
		}

		domain := fields[0]
		if strings.EqualFold(fields[1], "TRUE") && !strings.HasPrefix(domain, ".") {
			// The subdomain flag and the leading dot carry the same
			// meaning; normalize to the dotted spelling.
			domain = "." + domain
		}

		expirySecs, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d has a bad expiry %q", ErrParseError, lineNo, fields[4])
		}
		var expiry time.Time
		if expirySecs > 0 {
			expiry = time.Unix(expirySecs, 0)
		}

		if fields[5] == "" {
			return nil, fmt.Errorf("%w: line %d has no cookie name", ErrParseError, lineNo)
		}

		secure := strings.EqualFold(fields[3], "TRUE")
		recs = append(recs, &jar.Record{
			URI:      originOf(domain, fields[2], secure),
			Domain:   domain,
			Path:     fields[2],
			Name:     fields[5],
			Value:    fields[6],
			Secure:   secure,
			HttpOnly: httpOnly,
			Expiry:   expiry,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	return recs, nil
}

func flag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// hostOf extracts the host from a stored origin URI, raw enough to
// avoid a full URL parse for the one case encode needs.
func hostOf(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// originOf rebuilds an origin URI for an imported line. The format
// carries no URI, so the domain and path have to stand in for one.
func originOf(domain, path string, secure bool) string {
	host := strings.TrimPrefix(domain, ".")
	if host == "" {
		return ""
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return scheme + "://" + host + path
}
