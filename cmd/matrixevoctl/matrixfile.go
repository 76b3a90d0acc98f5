package main

import (
	"fmt"
	"os"

	"matrixevo/internal/matrix"
)

func loadMatrix(path string) (matrix.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return matrix.Matrix{}, err
	}
	m, err := matrix.Parse(string(data))
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.IsEmpty() {
		return matrix.Matrix{}, fmt.Errorf("matrix file %s is empty", path)
	}
	return m, nil
}

func writeMatrix(path string, m matrix.Matrix) error {
	return os.WriteFile(path, []byte(matrix.Format(m)+"\n"), 0o644)
}
