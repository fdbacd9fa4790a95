package ingest

import (
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

// ParseTimestamp parses an ISO-8601 instant and returns it in UTC. Inputs without a zone
// designator are interpreted as UTC. A single space is accepted in place of the 'T' separator.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	ts, err := iso8601.ParseString(raw)
	if err != nil {
		if i := strings.IndexByte(raw, ' '); i == len("2006-01-02") {
			ts, err = iso8601.ParseString(raw[:i] + "T" + raw[i+1:])
		}
		if err != nil {
			return time.Time{}, err
		}
	}
	return ts.UTC(), nil
}
