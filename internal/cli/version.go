package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/model"
)

const version = "3.0.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := map[string]string{
				"version":   version,
				"name":      "wise",
				"truthlock": model.TruthlockVersion,
				"winstack":  model.WinstackVersion,
			}
			out, _ := model.MarshalDocument(info)
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		},
	}
}
