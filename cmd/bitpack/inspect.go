package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the layout and fingerprint of the root record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.loadSchema()
			if err != nil {
				return err
			}

			root := doc.Root
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "record:      %s\n", root.Name())
			fmt.Fprintf(out, "fingerprint: 0x%016X\n", root.Fingerprint())
			if bits, ok := root.FixedBits(); ok {
				fmt.Fprintf(out, "size:        %d bits (%d bytes)\n", bits, (bits+7)/8)
			} else {
				fmt.Fprintf(out, "size:        variable\n")
			}
			fmt.Fprintf(out, "types:       %v\n\n", doc.Names())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tKIND\tBITS\tTYPE")
			for _, f := range root.Layout() {
				bits := "var"
				if f.Fixed {
					bits = fmt.Sprint(f.Bits)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Kind, bits, f.Type)
			}

			return tw.Flush()
		},
	}
}
