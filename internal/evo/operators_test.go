package evo

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"matrixevo/internal/matrix"
)

func scoredPopulation(t *testing.T, fitness ...float64) Population {
	t.Helper()
	pop := newPopulation(len(fitness))
	for i, f := range fitness {
		g, err := matrix.New(1, 4)
		if err != nil {
			t.Fatalf("new matrix: %v", err)
		}
		// Tag each genome with its slot index so picks are identifiable.
		for b := 0; b < 4; b++ {
			g.Set(0, b, uint8(i>>b)&1)
		}
		pop.add(g, f)
	}
	return pop
}

func slotOf(t *testing.T, g matrix.Matrix) int {
	t.Helper()
	slot := 0
	for b := 0; b < 4; b++ {
		slot |= int(g.At(0, b)) << b
	}
	return slot
}

func TestScoreProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		rows, cols := 1+rng.Intn(8), 1+rng.Intn(8)
		a := matrix.Random(rng, rows, cols)
		b := matrix.Random(rng, rows, cols)

		self, err := Score(a, a)
		if err != nil || self != 1.0 {
			t.Fatalf("score(a,a) = %v, %v", self, err)
		}
		ab, _ := Score(a, b)
		ba, _ := Score(b, a)
		if ab != ba {
			t.Fatalf("score not symmetric: %v vs %v", ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("score out of range: %v", ab)
		}
	}
}

func TestScoreKnownValue(t *testing.T) {
	a := matrix.MustFromRows([][]int{{1, 0}, {0, 1}})
	b := matrix.MustFromRows([][]int{{1, 1}, {0, 0}})
	got, err := Score(a, b)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("score = %v, want 0.5", got)
	}
	if inv, _ := Score(a, a.Invert()); inv != 0 {
		t.Fatalf("score against complement = %v", inv)
	}
}

func TestScoreDimensionMismatch(t *testing.T) {
	a := matrix.MustFromRows([][]int{{1, 0}})
	b := matrix.MustFromRows([][]int{{1}, {0}})
	if _, err := Score(a, b); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEvaluatePopulationScoresOnlyUnscoredSlots(t *testing.T) {
	target := matrix.MustFromRows([][]int{{1, 1}})
	pop := Population{
		Genomes: []matrix.Matrix{
			matrix.MustFromRows([][]int{{1, 1}}),
			matrix.MustFromRows([][]int{{0, 1}}),
		},
		Fitness: []float64{0.25, math.NaN()},
	}
	n, err := EvaluatePopulation(&pop, target)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if n != 1 {
		t.Fatalf("evaluations = %d, want 1", n)
	}
	if pop.Fitness[0] != 0.25 || pop.Fitness[1] != 0.5 {
		t.Fatalf("unexpected fitness %v", pop.Fitness)
	}
}

func TestTournamentSelectorReturnsClone(t *testing.T) {
	pop := scoredPopulation(t, 0.1, 0.9, 0.5)
	rng := rand.New(rand.NewSource(1))
	picked, err := TournamentSelector{Size: 3}.PickParent(rng, pop)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	slot := slotOf(t, picked)
	picked.Flip(0)
	if slotOf(t, pop.Genomes[slot]) != slot {
		t.Fatal("mutating the selection changed the population")
	}
}

func TestTournamentSelectorPrefersFitterSlots(t *testing.T) {
	pop := scoredPopulation(t, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.95)
	rng := rand.New(rand.NewSource(42))
	counts := make([]int, pop.Len())
	for i := 0; i < 2000; i++ {
		picked, err := TournamentSelector{Size: 3}.PickParent(rng, pop)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		counts[slotOf(t, picked)]++
	}
	if counts[7] <= counts[0] {
		t.Fatalf("expected best slot to dominate worst slot: %v", counts)
	}
}

func TestTournamentSelectorTieFavoursFirstSample(t *testing.T) {
	pop := scoredPopulation(t, 0.5, 0.5, 0.5, 0.5)
	a := rand.New(rand.NewSource(9))
	b := rand.New(rand.NewSource(9))
	picked, err := TournamentSelector{Size: 4}.PickParent(a, pop)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if first := b.Intn(pop.Len()); slotOf(t, picked) != first {
		t.Fatalf("tie resolved to slot %d, want first sample %d", slotOf(t, picked), first)
	}
}

func TestDoubleTournamentUsesDistinctSlots(t *testing.T) {
	// With exactly four slots every draw covers the whole population, so the
	// global best always wins.
	pop := scoredPopulation(t, 0.3, 0.8, 0.1, 0.6)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		picked, err := DoubleTournamentSelector{}.PickParent(rng, pop)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if slot := slotOf(t, picked); slot != 1 {
			t.Fatalf("picked slot %d, want 1", slot)
		}
	}
}

func TestDoubleTournamentTinyPopulation(t *testing.T) {
	pop := scoredPopulation(t, 0.2, 0.4)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		if _, err := (DoubleTournamentSelector{}).PickParent(rng, pop); err != nil {
			t.Fatalf("pick: %v", err)
		}
	}
}

func TestRouletteSelector(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	zero := scoredPopulation(t, 0, 0, 0)
	picked, err := RouletteSelector{}.PickParent(rng, zero)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if slotOf(t, picked) != 2 {
		t.Fatalf("zero-total roulette picked slot %d, want last", slotOf(t, picked))
	}

	single := scoredPopulation(t, 0, 1, 0)
	for i := 0; i < 100; i++ {
		picked, err := RouletteSelector{}.PickParent(rng, single)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if slotOf(t, picked) != 1 {
			t.Fatalf("picked zero-fitness slot %d", slotOf(t, picked))
		}
	}
}

func TestSelectorsRejectMissingInputs(t *testing.T) {
	pop := scoredPopulation(t, 0.5)
	for _, sel := range []Selector{TournamentSelector{Size: 2}, DoubleTournamentSelector{}, RouletteSelector{}} {
		if _, err := sel.PickParent(nil, pop); err == nil {
			t.Fatalf("%s: expected error for nil rng", sel.Name())
		}
		if _, err := sel.PickParent(rand.New(rand.NewSource(1)), Population{}); err == nil {
			t.Fatalf("%s: expected error for empty population", sel.Name())
		}
	}
}

func TestUniformCrossoverZeroRateSkips(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	p1 := matrix.Random(rng, 6, 6)
	p2 := p1.Invert()
	cx := UniformCrossover{Rate: 0, Mode: RateSkip}
	for i := 0; i < 100; i++ {
		child, err := cx.Cross(rng, p1, p2)
		if err != nil {
			t.Fatalf("cross: %v", err)
		}
		if !child.Equal(p1) {
			t.Fatal("zero-rate crossover must return a clone of the first parent")
		}
	}
}

func TestUniformCrossoverMixesParents(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	p1, _ := matrix.New(10, 10)
	p2 := p1.Invert()
	child, err := UniformCrossover{Rate: 1, Mode: RateSkip}.Cross(rng, p1, p2)
	if err != nil {
		t.Fatalf("cross: %v", err)
	}
	ones := child.Ones()
	if ones < 25 || ones > 75 {
		t.Fatalf("expected roughly half the cells from each parent, got %d ones", ones)
	}
	if p1.Ones() != 0 || p2.Ones() != 100 {
		t.Fatal("crossover modified a parent")
	}
}

func TestUniformCrossoverBiasMode(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	p1, _ := matrix.New(4, 4)
	p2 := p1.Invert()

	all1, _ := UniformCrossover{Rate: 1, Mode: RateBias}.Cross(rng, p1, p2)
	if !all1.Equal(p1) {
		t.Fatal("bias=1 must copy the first parent")
	}
	all2, _ := UniformCrossover{Rate: 0, Mode: RateBias}.Cross(rng, p1, p2)
	if !all2.Equal(p2) {
		t.Fatal("bias=0 must copy the second parent")
	}
}

func TestUniformCrossoverRejectsUnknownMode(t *testing.T) {
	p := matrix.MustFromRows([][]int{{1}})
	_, err := UniformCrossover{Rate: 1, Mode: "sometimes"}.Cross(rand.New(rand.NewSource(1)), p, p)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSinglePointCrossover(t *testing.T) {
	p1, _ := matrix.New(5, 3)
	p2 := p1.Invert()
	cx := SinglePointCrossover{}

	a, err := cx.Cross(nil, p1, p2)
	if err != nil {
		t.Fatalf("cross: %v", err)
	}
	b, _ := cx.Cross(nil, p1, p2)
	if !a.Equal(b) {
		t.Fatal("single point crossover must be deterministic")
	}
	for r := 0; r < 5; r++ {
		want := uint8(0)
		if r >= 2 {
			want = 1
		}
		for c := 0; c < 3; c++ {
			if a.At(r, c) != want {
				t.Fatalf("row %d col %d = %d, want %d", r, c, a.At(r, c), want)
			}
		}
	}
}

func TestCrossoverRejectsMismatchedParents(t *testing.T) {
	a := matrix.MustFromRows([][]int{{1, 0}})
	b := matrix.MustFromRows([][]int{{1, 0, 1}})
	if _, err := (SinglePointCrossover{}).Cross(nil, a, b); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := (UniformCrossover{Rate: 1}).Cross(rand.New(rand.NewSource(1)), a, b); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBitFlipMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	g := matrix.Random(rng, 5, 5)
	orig := g.Clone()

	if n := (BitFlipMutation{Rate: 0}).Mutate(rng, g); n != 0 || !g.Equal(orig) {
		t.Fatalf("zero-rate mutation flipped %d cells", n)
	}
	if n := (BitFlipMutation{Rate: 1}).Mutate(rng, g); n != 25 || !g.Equal(orig.Invert()) {
		t.Fatalf("full-rate mutation flipped %d cells", n)
	}
}

func TestRowGatedMutationCompoundsRate(t *testing.T) {
	rng := rand.New(rand.NewSource(32))
	plain, _ := matrix.New(200, 200)
	gated, _ := matrix.New(200, 200)

	flatFlips := BitFlipMutation{Rate: 0.2}.Mutate(rng, plain)
	gatedFlips := RowGatedMutation{Rate: 0.2}.Mutate(rng, gated)

	// Expected 8000 vs 1600 flips out of 40000 cells.
	if flatFlips < 7000 || flatFlips > 9000 {
		t.Fatalf("bit flip count %d outside expected band", flatFlips)
	}
	if gatedFlips < 800 || gatedFlips > 2600 {
		t.Fatalf("row gated flip count %d outside expected band", gatedFlips)
	}
	if gated.Ones() != gatedFlips {
		t.Fatalf("reported %d flips but %d cells set", gatedFlips, gated.Ones())
	}

	full, _ := matrix.New(3, 3)
	if n := (RowGatedMutation{Rate: 1}).Mutate(rng, full); n != 9 {
		t.Fatalf("full-rate row gated mutation flipped %d cells", n)
	}
}
