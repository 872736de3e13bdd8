package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"addrparser/internal/domain"
	"addrparser/internal/intake"
	"addrparser/internal/repository/hris"
	"addrparser/internal/service"
)

func employeesCmd() *cobra.Command {
	var date, personID, out string

	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Parse employee addresses by intake date or employee id and export the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (date == "") == (personID == "") {
				return errors.New("exactly one of --date or --id is required")
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			svc := service.NewLookupService(hris.NewAddressParser(e.db), hris.NewEmployeeDirectory(e.db))

			var employees []domain.Employee
			if date != "" {
				employees, err = svc.EmployeesByDate(cmd.Context(), date)
				if err != nil {
					return err
				}
				if len(employees) == 0 {
					return fmt.Errorf("không có nhân viên nào vào ngày %s", date)
				}
			} else {
				emp, err := svc.EmployeeByID(cmd.Context(), personID)
				if err != nil {
					return err
				}
				employees = []domain.Employee{*emp}
			}
			if len(employees) > e.cfg.Batch.MaxItems {
				return domain.ErrTooManyItems
			}

			return e.runBatch(cmd.Context(), domain.SessionKindEmployee, intake.FromEmployees(employees), out)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Intake date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&personID, "id", "", "Employee id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .xlsx path (default: nhan_vien_dia_chi_<date>.xlsx)")
	return cmd
}
