package evo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Algorithm string

const (
	AlgorithmGA      Algorithm = "ga"
	AlgorithmMemetic Algorithm = "memetic"
)

// Config holds every recognized run option. Strategy fields name entries of
// the strategy registry.
type Config struct {
	Algorithm              Algorithm `json:"algorithm" yaml:"algorithm" validate:"oneof=ga memetic"`
	PopulationSize         int       `json:"population_size" yaml:"population_size" validate:"gte=1"`
	MaxGenerations         int       `json:"max_generations" yaml:"max_generations" validate:"gte=1"`
	CrossoverRate          float64   `json:"crossover_rate" yaml:"crossover_rate" validate:"gte=0,lte=1"`
	MutationRate           float64   `json:"mutation_rate" yaml:"mutation_rate" validate:"gte=0,lte=1"`
	TournamentSize         int       `json:"tournament_size" yaml:"tournament_size" validate:"gte=1"`
	ElitismCount           int       `json:"elitism_count" yaml:"elitism_count" validate:"gte=0"`
	NoiseRate              float64   `json:"noise_rate" yaml:"noise_rate" validate:"gte=0,lte=1"`
	MaxLocalSearchAttempts int       `json:"max_local_search_attempts" yaml:"max_local_search_attempts" validate:"gte=0"`
	ResetThreshold         int       `json:"reset_threshold" yaml:"reset_threshold" validate:"gte=1"`

	Selection         string   `json:"selection" yaml:"selection" validate:"required"`
	Crossover         string   `json:"crossover" yaml:"crossover" validate:"required"`
	CrossoverRateMode RateMode `json:"crossover_rate_mode" yaml:"crossover_rate_mode" validate:"oneof=skip bias"`
	Mutation          string   `json:"mutation" yaml:"mutation" validate:"required"`

	ResetEliteFraction        float64 `json:"reset_elite_fraction" yaml:"reset_elite_fraction" validate:"gt=0,lte=1"`
	LocalSearchLowProbability float64 `json:"local_search_low_probability" yaml:"local_search_low_probability" validate:"gte=0,lte=1"`

	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the defaults of the interactive reconstruction tool.
func DefaultConfig() Config {
	return Config{
		Algorithm:                 AlgorithmGA,
		PopulationSize:            100,
		MaxGenerations:            500,
		CrossoverRate:             0.8,
		MutationRate:              0.02,
		TournamentSize:            3,
		ElitismCount:              5,
		NoiseRate:                 0.05,
		MaxLocalSearchAttempts:    50,
		ResetThreshold:            50,
		Selection:                 "tournament",
		Crossover:                 "uniform",
		CrossoverRateMode:         RateSkip,
		Mutation:                  "bit_flip",
		ResetEliteFraction:        DefaultResetEliteFraction,
		LocalSearchLowProbability: DefaultLocalSearchLowProbability,
		Seed:                      1,
	}
}

var configValidate = validator.New()

// Validate checks field ranges and that every named strategy is registered.
// ElitismCount is bounded by PopulationSize only for the genetic algorithm;
// the memetic variant always keeps the single best individual.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, describeFieldError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Algorithm == AlgorithmGA && c.ElitismCount > c.PopulationSize {
		return fmt.Errorf("%w: ElitismCount must be <= PopulationSize", ErrInvalidConfig)
	}
	if _, err := ResolveSelector(c.Selection, c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := ResolveCrossover(c.Crossover, c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := ResolveMutator(c.Mutation, c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}
