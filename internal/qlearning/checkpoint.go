package qlearning

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/janpfeifer/qtictactoe/internal/generics"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyTable is returned by ReadCheckpoint when there is nothing to read.
	// Callers should treat it as "no prior learning".
	ErrEmptyTable = errors.New("empty Q-table")

	// ErrMalformedTable is returned by ReadCheckpoint when a header or entry line can't be parsed.
	ErrMalformedTable = errors.New("malformed Q-table")
)

// Checkpoint is the part of an agent that is persisted: the (possibly decayed) learning and
// exploration rates, and the QTable.
type Checkpoint struct {
	LearningRate, Exploration float64
	Table                     QTable
}

// Validate returns an error wrapping ErrMalformedTable if the learning rate is not in (0, 1],
// the exploration rate is not in [0, 1], or any value of the table is not finite.
func (cp *Checkpoint) Validate() error {
	if !(cp.LearningRate > 0 && cp.LearningRate <= 1) {
		return errors.Wrapf(ErrMalformedTable, "learning rate must be in (0, 1], got %g", cp.LearningRate)
	}
	if !(cp.Exploration >= 0 && cp.Exploration <= 1) {
		return errors.Wrapf(ErrMalformedTable, "exploration rate must be in [0, 1], got %g", cp.Exploration)
	}
	for key, value := range cp.Table {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return errors.Wrapf(ErrMalformedTable, "entry %s has a non-finite value %g", key, value)
		}
	}
	return nil
}

// Checkpoint returns the persistable state of the agent. The table is shared, not copied,
// so it must not be saved while the agent is being updated.
func (a *Agent) Checkpoint() *Checkpoint {
	return &Checkpoint{
		LearningRate: a.params.LearningRate,
		Exploration:  a.params.Exploration,
		Table:        a.table,
	}
}

// Restore the learning and exploration rates and the table from a checkpoint. The agent takes
// ownership of the checkpoint's table.
func (a *Agent) Restore(cp *Checkpoint) {
	a.checkWritable()
	a.params.LearningRate = cp.LearningRate
	a.params.Exploration = cp.Exploration
	a.table = cp.Table
	if a.table == nil {
		a.table = make(QTable)
	}
}

// formatFloat uses the shortest representation that parses back to the same float64.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCheckpoint in the flat text format:
//
//	<learning rate>
//	<exploration rate>
//	<state>:<row>,<col> <value>
//	...
//
// Entries are written sorted by key, so the output is deterministic.
func WriteCheckpoint(w io.Writer, cp *Checkpoint) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(formatFloat(cp.LearningRate) + "\n" + formatFloat(cp.Exploration) + "\n"); err != nil {
		return errors.Wrap(err, "failed to write Q-table header")
	}
	encoded := make(map[string]float64, len(cp.Table))
	for key, value := range cp.Table {
		encoded[key.String()] = value
	}
	for key, value := range generics.SortedKeysAndValues(encoded) {
		if _, err := bw.WriteString(key + " " + formatFloat(value) + "\n"); err != nil {
			return errors.Wrapf(err, "failed to write Q-table entry %q", key)
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush Q-table")
}

// ReadCheckpoint parses the format written by WriteCheckpoint.
//
// It returns ErrEmptyTable if r has no content, and an error wrapping ErrMalformedTable if any
// line can't be parsed or the values are out of range (see Checkpoint.Validate).
func ReadCheckpoint(r io.Reader) (*Checkpoint, error) {
	scanner := bufio.NewScanner(r)
	cp := &Checkpoint{Table: make(QTable)}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		switch lineNum {
		case 1, 2:
			value, err := strconv.ParseFloat(line, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedTable, "line #%d: failed to parse header value %q: %v", lineNum, line, err)
			}
			if lineNum == 1 {
				cp.LearningRate = value
			} else {
				cp.Exploration = value
			}
			continue
		}
		if line == "" {
			// Tolerate trailing empty lines.
			continue
		}
		keyStr, valueStr, found := strings.Cut(line, " ")
		if !found {
			return nil, errors.Wrapf(ErrMalformedTable, "line #%d: entry %q is not in the \"<key> <value>\" format", lineNum, line)
		}
		key, err := ParseKey(keyStr)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedTable, "line #%d: %v", lineNum, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedTable, "line #%d: failed to parse value %q: %v", lineNum, valueStr, err)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, errors.Wrapf(ErrMalformedTable, "line #%d: non-finite value %q", lineNum, valueStr)
		}
		cp.Table[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read Q-table")
	}
	switch lineNum {
	case 0:
		return nil, ErrEmptyTable
	case 1:
		return nil, errors.Wrap(ErrMalformedTable, "missing exploration rate header line")
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}
