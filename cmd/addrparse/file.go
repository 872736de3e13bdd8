package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"addrparser/internal/domain"
	"addrparser/internal/intake"
)

func fileCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "file PATH",
		Short: "Parse every address in a .txt, .csv or .xlsx file and export the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			path := args[0]
			f, err := os.Open(filepath.Clean(path))
			if err != nil {
				return err
			}
			defer f.Close()

			lines, err := intake.ReadFile(filepath.Base(path), f, e.cfg.Intake.MaxFileBytes())
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if len(lines) == 0 {
				return domain.ErrEmptyInput
			}
			if len(lines) > e.cfg.Batch.MaxItems {
				return domain.ErrTooManyItems
			}

			return e.runBatch(cmd.Context(), domain.SessionKindManual, intake.FromLines(lines), out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .xlsx path (default: dia_chi_chuan_hoa_<date>.xlsx)")
	return cmd
}
