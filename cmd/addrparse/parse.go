package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"addrparser/internal/repository/hris"
	"addrparser/internal/service"
	"addrparser/internal/xlsxexport"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse ADDRESS...",
		Short: "Parse one or more addresses and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			svc := service.NewLookupService(hris.NewAddressParser(e.db), hris.NewEmployeeDirectory(e.db))

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MỨC\tĐỊA CHỈ GỐC\tĐỊA CHỈ CHUẨN HÓA")
			for _, addr := range args {
				res, err := svc.ParseAddress(cmd.Context(), addr)
				if err != nil && res == nil {
					return err
				}
				normalized := res.NewAddress
				if !res.Trustworthy() {
					normalized = xlsxexport.UndeterminedMarker
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", res.ParseSuccessLevel, addr, normalized)
			}
			return w.Flush()
		},
	}
}
