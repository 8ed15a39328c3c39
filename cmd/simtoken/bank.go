package main

import (
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/mourao666/cassandra-sim/hyperplane"
	"github.com/spf13/cobra"
)

func newBankCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Manage hyperplane banks",
	}
	cmd.AddCommand(newBankGenerateCmd(a), newBankShowCmd(a))
	return cmd
}

func newBankGenerateCmd(a *app) *cobra.Command {
	var (
		name      string
		bits, dim int
		seed      uint64
		current   bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a seeded bank and save it to the blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bc := a.cfg.Bank
			if !cmd.Flags().Changed("name") {
				name = bc.Name
			}
			if !cmd.Flags().Changed("bits") {
				bits = bc.Bits
			}
			if !cmd.Flags().Changed("dim") {
				dim = bc.Dimension
			}
			if !cmd.Flags().Changed("seed") {
				seed = bc.Seed
			}

			bank, err := hyperplane.Generate(bits, dim, seed)
			if err != nil {
				return err
			}
			opts, err := saveOptions(bc)
			if err != nil {
				return err
			}
			store, err := openBlobStore(ctx, a.cfg.BlobStore)
			if err != nil {
				return err
			}

			if current {
				err = hyperplane.Publish(ctx, store, name, bank, opts...)
			} else {
				err = hyperplane.SaveBank(ctx, store, name, bank, opts...)
			}
			if err != nil {
				return err
			}
			a.logger.Info("bank saved", "name", name, "bits", bits, "dim", dim, "store", a.cfg.BlobStore.Kind)
			fmt.Fprintf(cmd.OutOrStdout(), "saved bank %s (bits=%d dim=%d seed=%d)\n", name, bits, dim, seed)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bank name (default: bank.name)")
	cmd.Flags().IntVar(&bits, "bits", 0, "signature width (default: bank.bits)")
	cmd.Flags().IntVar(&dim, "dim", 0, "key dimension (default: bank.dimension)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "generator seed (default: bank.seed)")
	cmd.Flags().BoolVar(&current, "current", false, "also point CURRENT at the bank")
	return cmd
}

func newBankShowCmd(a *app) *cobra.Command {
	var (
		name    string
		current bool
		normals bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openBlobStore(ctx, a.cfg.BlobStore)
			if err != nil {
				return err
			}

			var bank *hyperplane.Bank
			switch {
			case current:
				bank, name, err = hyperplane.LoadCurrent(ctx, store)
			case name != "":
				bank, err = hyperplane.LoadBank(ctx, store, name)
			default:
				name = a.cfg.Bank.Name
				bank, err = loadBank(ctx, a.cfg.Bank, store)
			}
			if err != nil {
				return err
			}

			doc := bank.Document()
			if !normals {
				doc.Normals = nil
			}
			out, err := gojson.MarshalIndent(struct {
				Name string `json:"name"`
				hyperplane.Document
			}{name, doc}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bank to read from the blob store")
	cmd.Flags().BoolVar(&current, "current", false, "read the bank CURRENT points at")
	cmd.Flags().BoolVar(&normals, "normals", false, "include the normal vectors")
	return cmd
}
