package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/yarara/internal/engine"
)

// JSONFormatter emits the full result as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, result *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
