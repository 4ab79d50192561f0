package parts

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed sample_parts.yaml
var sampleRawData []byte

// sampleFile is the top-level structure of the embedded YAML.
type sampleFile struct {
	Items []SourceRecord `yaml:"items"`
}

var sample struct {
	once sync.Once
	rows []*Row
	err  error
}

// Sample returns the built-in catalog, normalized. The slice is a fresh
// copy; the rows themselves are shared and must not be mutated.
func Sample() []*Row {
	sample.once.Do(loadSample)
	if sample.err != nil {
		return nil
	}
	cp := make([]*Row, len(sample.rows))
	copy(cp, sample.rows)
	return cp
}

// loadSample parses the embedded YAML sample data.
func loadSample() {
	var f sampleFile
	if err := yaml.Unmarshal(sampleRawData, &f); err != nil {
		sample.err = fmt.Errorf("parts: parse sample yaml: %w", err)
		return
	}
	sample.rows = NormalizeAll(f.Items)
}
