package main

import (
	"github.com/spf13/cobra"

	"github.com/sartorproj/goeda/boxplot"
	"github.com/sartorproj/goeda/store"
)

type runOutput struct {
	Run    *store.Run      `json:"run"`
	Result *boxplot.Result `json:"result"`
}

func newRunsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "runs [ID]",
		Short: "List saved boxplot runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := a.cfg.Database
			st, err := store.Open(db.Driver, db.DSN, a.log)
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 0 {
				runs, err := st.Runs(cmd.Context())
				if err != nil {
					return err
				}
				return a.write(runs)
			}

			run, res, err := st.LoadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.write(runOutput{Run: run, Result: res})
		},
	}
}
