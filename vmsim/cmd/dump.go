package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/vmsim/mem/vm/mmu"
)

func dump(out io.Writer, c *mmu.Comp) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "FRAME\tOWNER\tPAGE\tLAST ACCESS")

	for _, o := range c.FrameOwnership() {
		if o.IsFree() {
			fmt.Fprintf(tw, "%d\t-\t-\t%d\n", o.Frame, o.LastAccess)
			continue
		}

		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", o.Frame, o.Owner, o.VPN,
			o.LastAccess)
	}

	pages, err := c.SwappedPages()
	if err != nil {
		return err
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SWAPPED\tOWNER\tPAGE\t")

	for i, p := range pages {
		fmt.Fprintf(tw, "%d\t%s\t%d\t\n", i, p.Owner, p.VPN)
	}

	return tw.Flush()
}
