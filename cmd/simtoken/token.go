package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/mourao666/cassandra-sim/dht"
	"github.com/mourao666/cassandra-sim/hyperplane"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	var random int
	cmd := &cobra.Command{
		Use:   "token [component...]",
		Short: "Print the token of a vector key",
		Example: `  simtoken token 10 5 6 1 0 2
  simtoken token --random 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.partitioner(cmd.Context())
			if err != nil {
				return err
			}

			if random > 0 {
				for range random {
					printToken(cmd, p.RandomToken())
				}
				return nil
			}
			if len(args) == 0 {
				return errors.New("token: expected vector components or --random")
			}

			v := make([]float64, len(args))
			for i, arg := range args {
				if v[i], err = strconv.ParseFloat(arg, 64); err != nil {
					return fmt.Errorf("component %d: %w", i, err)
				}
			}
			tok, err := p.TokenFor(hyperplane.EncodeKey(v))
			if err != nil {
				return err
			}
			printToken(cmd, tok)
			return nil
		},
	}
	cmd.Flags().IntVar(&random, "random", 0, "print this many random tokens instead")
	return cmd
}

func newMidpointCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "midpoint <left> <right>",
		Short: "Print the token bisecting the range (left, right]",
		Long: `Print the token bisecting the range (left, right]. Tokens are bit literals;
pass '' for the minimum token. The range wraps when left sorts at or after right.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.partitioner(cmd.Context())
			if err != nil {
				return err
			}
			f := p.TokenFactory()
			left, err := f.FromString(args[0])
			if err != nil {
				return err
			}
			right, err := f.FromString(args[1])
			if err != nil {
				return err
			}
			printToken(cmd, p.Midpoint(left, right))
			return nil
		},
	}
}

func printToken(cmd *cobra.Command, t dht.Token) {
	literal := t.String()
	if t.IsMinimum() {
		literal = "<minimum>"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", literal, hex.EncodeToString(t.Bytes()))
}
