package restore

import (
	"encoding/json"
	"fmt"
	"os"
)

// Hit is one document of an exported search response
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

// Dump is the body of a search API response saved to disk
type Dump struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// LoadDump reads the whole file and parses it
func LoadDump(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse dump %s: %w", path, err)
	}
	return &dump, nil
}

// Documents returns the exported hits
func (d *Dump) Documents() []Hit {
	return d.Hits.Hits
}
