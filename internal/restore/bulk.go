package restore

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/olivere/elastic/v7"
)

// DefaultIndex is used for hits exported without an _index
const DefaultIndex = "franchises"

var emptySource = json.RawMessage(`{}`)

// BuildRequests turns every hit into an index action carrying its source.
// Sources are compacted onto one line so the payload stays newline-delimited.
func BuildRequests(hits []Hit) []elastic.BulkableRequest {
	reqs := make([]elastic.BulkableRequest, 0, len(hits))
	for _, hit := range hits {
		index := hit.Index
		if index == "" {
			index = DefaultIndex
		}
		source := hit.Source
		if len(source) == 0 || string(source) == "null" {
			source = emptySource
		}
		source = compact(source)

		req := elastic.NewBulkIndexRequest().Index(index).Doc(source)
		if hit.ID != "" {
			req = req.Id(hit.ID)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// Payload renders requests as the newline-delimited body sent to _bulk:
// action line, document line, and a trailing newline.
func Payload(reqs []elastic.BulkableRequest) (string, error) {
	var sb strings.Builder
	for _, req := range reqs {
		lines, err := req.Source()
		if err != nil {
			return "", err
		}
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// compact strips insignificant whitespace from src. Sources come from a
// parsed dump so they are valid JSON; anything else is passed through.
func compact(src json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, src); err != nil {
		return src
	}
	return json.RawMessage(buf.Bytes())
}
