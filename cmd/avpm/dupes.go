package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/AVPM/internal/app/dupes"
)

func newDupesCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "列出同一插件的多份安装（不同路径或格式），最新版本在前",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, d)
			if err != nil {
				return err
			}
			if err := s.scan(cmd); err != nil {
				return err
			}
			sets := dupes.Find(s.mgr.Inventory())

			format := s.outputFormat(d)
			if format == outputTable {
				renderDupes(d.out, sets)
				return nil
			}
			if err := writeDoc(d.out, format, sets); err != nil {
				return failed(err)
			}
			fmt.Fprintf(d.errOut, "完成：duplicate_sets=%d\n", len(sets))
			return nil
		},
	}
	addScanFlags(cmd.Flags())
	return cmd
}
