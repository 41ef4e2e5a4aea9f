package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// traceFile is the on-disk envelope for exported trials
type traceFile struct {
	RunID  string         `msgpack:"run_id"`
	Trials []domain.Trial `msgpack:"trials"`
}

// WriteTraces encodes trials as MessagePack
func WriteTraces(w io.Writer, runID string, trials []domain.Trial) error {
	bw := bufio.NewWriter(w)
	if err := msgpack.NewEncoder(bw).Encode(traceFile{RunID: runID, Trials: trials}); err != nil {
		return fmt.Errorf("encode traces: %w", err)
	}
	return bw.Flush()
}

// ReadTraces decodes a stream written by WriteTraces
func ReadTraces(r io.Reader) (string, []domain.Trial, error) {
	var tf traceFile
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&tf); err != nil {
		return "", nil, fmt.Errorf("decode traces: %w", err)
	}
	return tf.RunID, tf.Trials, nil
}

// SaveTraces writes trials to path
func SaveTraces(path, runID string, trials []domain.Trial) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTraces(f, runID, trials); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
