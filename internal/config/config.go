// Package config loads run settings from a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"matrixevo/internal/evo"
	"matrixevo/internal/storage"
)

// StoreConfig selects the persistence backend for run records.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// File is the on-disk configuration layout:
//
//	engine:
//	  algorithm: memetic
//	  population_size: 50
//	store:
//	  kind: badger
//	  path: ./runs
type File struct {
	Engine evo.Config  `yaml:"engine"`
	Store  StoreConfig `yaml:"store"`
}

func Default() File {
	return File{
		Engine: evo.DefaultConfig(),
		Store:  StoreConfig{Kind: storage.DefaultStoreKind},
	}
}

// Load starts from Default, applies the YAML file at path when path is not
// empty, then MATRIXEVO_* environment overrides, and validates the engine
// section. Unknown YAML keys are rejected.
func Load(path string) (File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *File, lookup func(string) (string, bool)) error {
	if v, ok := lookup("MATRIXEVO_ALGORITHM"); ok && v != "" {
		cfg.Engine.Algorithm = evo.Algorithm(v)
	}
	if v, ok := lookup("MATRIXEVO_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MATRIXEVO_SEED: %w", err)
		}
		cfg.Engine.Seed = seed
	}
	if v, ok := lookup("MATRIXEVO_POPULATION_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MATRIXEVO_POPULATION_SIZE: %w", err)
		}
		cfg.Engine.PopulationSize = n
	}
	if v, ok := lookup("MATRIXEVO_MAX_GENERATIONS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MATRIXEVO_MAX_GENERATIONS: %w", err)
		}
		cfg.Engine.MaxGenerations = n
	}
	if v, ok := lookup("MATRIXEVO_STORE"); ok && v != "" {
		cfg.Store.Kind = v
	}
	if v, ok := lookup("MATRIXEVO_STORE_PATH"); ok && v != "" {
		cfg.Store.Path = v
	}
	return nil
}
