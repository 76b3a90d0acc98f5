package matrix

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the text format: rows separated by newlines, cells separated by
// commas, each cell an integer literal equal to 0 or 1. Surrounding whitespace
// on lines and cells is ignored. Empty text yields the empty matrix.
func Parse(text string) (Matrix, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Matrix{}, nil
	}
	lines := strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
	rows := make([][]int, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(strings.TrimSpace(line), ",")
		row := make([]int, len(fields))
		for j, field := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return Matrix{}, fmt.Errorf("%w: line %d cell %d: %q is not an integer", ErrInvalidInput, i+1, j+1, field)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return FromRows(rows)
}

// Format renders m in the text format accepted by Parse, without a trailing
// newline.
func Format(m Matrix) string {
	if m.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.Grow(m.rows * (2*m.cols + 1))
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('0' + m.bits[i*m.cols+j])
		}
	}
	return b.String()
}

func (m Matrix) String() string {
	return Format(m)
}

func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToRows())
}

func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := FromRows(rows)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
