package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"matrixevo/internal/evo"
	"matrixevo/internal/matrix"
)

func (a *app) scoreCommand() *cobra.Command {
	var invert bool
	cmd := &cobra.Command{
		Use:   "score <candidate-file> <target-file>",
		Short: "Print the fraction of cells where candidate matches target",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			candidate, err := loadMatrix(args[0])
			if err != nil {
				return err
			}
			target, err := loadMatrix(args[1])
			if err != nil {
				return err
			}
			if invert {
				target = target.Invert()
			}
			score, err := evo.Score(candidate, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "match=%.6f cells=%d\n", score, target.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&invert, "invert", false, "compare against the complement of the target")
	return cmd
}

func (a *app) invertCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "invert <matrix-file>",
		Short: "Print or write the bitwise complement of a matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := loadMatrix(args[0])
			if err != nil {
				return err
			}
			inverted := m.Invert()
			if outPath != "" {
				if err := writeMatrix(outPath, inverted); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(a.stdout, matrix.Format(inverted))
			}
			fmt.Fprintf(a.stdout, "ones=%d cells=%d\n", inverted.Ones(), inverted.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the inverted matrix to this file")
	return cmd
}

func (a *app) strategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List registered selection, crossover and mutation strategies",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			names := evo.ListStrategies()
			fmt.Fprintf(a.stdout, "selection: %s\n", strings.Join(names.Selection, ", "))
			fmt.Fprintf(a.stdout, "crossover: %s\n", strings.Join(names.Crossover, ", "))
			fmt.Fprintf(a.stdout, "mutation: %s\n", strings.Join(names.Mutation, ", "))
			return nil
		},
	}
}
