package matrix

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
)

func TestFromRowsRejectsInvalidInput(t *testing.T) {
	cases := map[string][][]int{
		"ragged":     {{1, 0}, {1}},
		"non-binary": {{1, 2}},
		"empty row":  {{}},
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromRows(rows); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCloneSharesNoStorage(t *testing.T) {
	m := MustFromRows([][]int{{1, 0}, {0, 1}})
	c := m.Clone()
	c.Flip(0)
	if m.At(0, 0) != 1 {
		t.Fatal("mutating clone changed original")
	}
	if c.Equal(m) {
		t.Fatal("expected clone to diverge after flip")
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		m := Random(rng, 1+rng.Intn(6), 1+rng.Intn(6))
		parsed, err := Parse(Format(m))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !parsed.Equal(m) {
			t.Fatalf("round trip mismatch:\n%s\n---\n%s", Format(m), Format(parsed))
		}
	}
}

func TestFormatNormalizesWhitespace(t *testing.T) {
	m, err := Parse(" 1, 0 ,1\r\n0,0, 1\n\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := Format(m); got != "1,0,1\n0,0,1" {
		t.Fatalf("unexpected format: %q", got)
	}
}

func TestParseEmptyText(t *testing.T) {
	m, err := Parse("  \n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !m.IsEmpty() {
		t.Fatalf("expected empty matrix, got %dx%d", m.Rows(), m.Cols())
	}
}

func TestParseRejectsNonInteger(t *testing.T) {
	if _, err := Parse("1,x\n0,1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := Parse("1,0\n0,3"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-binary cell, got %v", err)
	}
}

func TestInvertAndOnes(t *testing.T) {
	m := MustFromRows([][]int{{1, 1, 0}, {0, 0, 0}})
	if m.Ones() != 2 {
		t.Fatalf("ones = %d", m.Ones())
	}
	inv := m.Invert()
	if inv.Ones() != 4 || m.Ones() != 2 {
		t.Fatalf("unexpected invert result %s", inv)
	}
}

func TestNoisyZeroRateIsClone(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	base := Random(rng, 4, 5)
	if got := Noisy(rng, base, 0); !got.Equal(base) {
		t.Fatal("expected zero-rate noise to reproduce base")
	}
	if got := Noisy(rng, base, 1); !got.Equal(base.Invert()) {
		t.Fatal("expected full-rate noise to invert base")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := MustFromRows([][]int{{0, 1, 1}, {1, 0, 0}})
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[[0,1,1],[1,0,0]]" {
		t.Fatalf("unexpected json %s", data)
	}
	var decoded Matrix
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(m) {
		t.Fatal("json round trip mismatch")
	}
}
