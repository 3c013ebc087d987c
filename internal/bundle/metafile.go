package bundle

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Metafile is the esbuild metafile JSON structure.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is an input file in the metafile.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

// MetafileImport is an import in the metafile.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput is an output file in the metafile.
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is the contribution of an input to an output.
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// OutputSize is one emitted file.
type OutputSize struct {
	Path  string
	Bytes int
}

// InputSize is one input's share of the bundle.
type InputSize struct {
	Path          string
	BytesInOutput int
	Percentage    float64
}

// Analysis summarizes a metafile.
type Analysis struct {
	Outputs    []OutputSize
	TotalBytes int
	// Largest lists the biggest inputs across JS outputs, descending.
	Largest []InputSize
	// Externals are the modules resolved to browser globals.
	Externals []string
}

// Analyze decodes a metafile and keeps the top inputs.
func Analyze(metafile string, top int) (*Analysis, error) {
	var m Metafile
	if err := json.Unmarshal([]byte(metafile), &m); err != nil {
		return nil, fmt.Errorf("decode metafile: %w", err)
	}
	a := &Analysis{}
	contrib := map[string]int{}
	jsBytes := 0
	for p, out := range m.Outputs {
		if strings.HasSuffix(p, ".map") {
			continue
		}
		a.Outputs = append(a.Outputs, OutputSize{Path: p, Bytes: out.Bytes})
		a.TotalBytes += out.Bytes
		if !strings.HasSuffix(p, ".js") {
			continue
		}
		jsBytes += out.Bytes
		for in, c := range out.Inputs {
			contrib[in] += c.BytesInOutput
		}
	}
	sort.Slice(a.Outputs, func(i, j int) bool { return a.Outputs[i].Path < a.Outputs[j].Path })

	for in, n := range contrib {
		share := 0.0
		if jsBytes > 0 {
			share = float64(n) * 100 / float64(jsBytes)
		}
		a.Largest = append(a.Largest, InputSize{Path: in, BytesInOutput: n, Percentage: share})
	}
	sort.Slice(a.Largest, func(i, j int) bool {
		if a.Largest[i].BytesInOutput != a.Largest[j].BytesInOutput {
			return a.Largest[i].BytesInOutput > a.Largest[j].BytesInOutput
		}
		return a.Largest[i].Path < a.Largest[j].Path
	})
	if top > 0 && len(a.Largest) > top {
		a.Largest = a.Largest[:top]
	}

	seen := map[string]bool{}
	for p := range m.Inputs {
		if rest, ok := strings.CutPrefix(p, externalNamespace+":"); ok && !seen[rest] {
			seen[rest] = true
			a.Externals = append(a.Externals, rest)
		}
	}
	sort.Strings(a.Externals)
	return a, nil
}
