package formdef

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/solatis/formrel/internal/form"
	"github.com/solatis/formrel/internal/types"
)

// Values maps dotted control paths to the values to apply.
type Values map[string]any

// ParseValues decodes a flat JSON or YAML object of path -> value.
func ParseValues(data []byte, format Format) (Values, error) {
	jsonData, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	var v Values
	if err := json.Unmarshal(jsonData, &v); err != nil {
		return nil, fmt.Errorf("invalid values: %w", err)
	}
	return v, nil
}

// LoadValues reads a values file. An empty path yields no values.
func LoadValues(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := ParseValues(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Paths returns the value paths in sorted order.
func (v Values) Paths() []string {
	paths := make([]string, 0, len(v))
	for p := range v {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Apply sets every value on root in sorted path order. Paths must name
// leaf controls.
func (v Values) Apply(root *form.Group) error {
	for _, path := range v.Paths() {
		c, ok := root.Find(path).(*form.Control)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrControlNotFound, path)
		}
		c.SetValue(v[path])
	}
	return nil
}
