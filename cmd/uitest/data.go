package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ecomqa/uitest/internal/dataset"
)

func newDataCmd() *cobra.Command {
	var (
		path  string
		sheet string
		row   int
	)
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Print a row of the test data workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dataset.New(path, sheet).Row(row)
			if err != nil {
				return err
			}
			cols := make([]string, 0, len(r))
			for c := range r {
				cols = append(cols, c)
			}
			sort.Strings(cols)
			for _, c := range cols {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c, r[c])
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&path, "data", defaultData, "test data workbook")
	cmd.PersistentFlags().StringVar(&sheet, "sheet", dataset.DefaultSheet, "sheet of the test data workbook")
	cmd.Flags().IntVar(&row, "row", 1, "data row to print, counted from 1 below the header")

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample workbook with the registration columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := dataset.Write(path, sheet, []string{dataset.UsernameColumn, dataset.EmailColumn}, [][]string{
				{"testuser01", "testuser01@mailinator.com"},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
