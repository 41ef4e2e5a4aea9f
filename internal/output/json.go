package output

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter emits the aggregate result as JSON
type JSONFormatter struct {
	Pretty bool
}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(r *Report) ([]byte, error) {
	if r == nil || r.Result == nil {
		return nil, fmt.Errorf("no result to format")
	}
	if j.Pretty {
		data, err := json.MarshalIndent(r.Result, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return json.Marshal(r.Result)
}
