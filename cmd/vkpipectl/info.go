package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagInfoBackend string

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the capabilities a device backend reports",
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&flagInfoBackend, "backend", "null", "Device backend (null or noop)")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(_ *cobra.Command, _ []string) error {
	dev, cleanup, err := openDevice(flagInfoBackend)
	if err != nil {
		return err
	}
	defer cleanup()

	info := dev.Info()
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", info.Name)
	fmt.Fprintf(w, "FP16 packed:\t%v\n", info.SupportsFP16Packed)
	fmt.Fprintf(w, "FP16 storage:\t%v\n", info.SupportsFP16Storage)
	fmt.Fprintf(w, "FP16 arithmetic:\t%v\n", info.SupportsFP16Arithmetic)
	fmt.Fprintf(w, "Int8 storage:\t%v\n", info.SupportsInt8Storage)
	fmt.Fprintf(w, "Int8 arithmetic:\t%v\n", info.SupportsInt8Arithmetic)
	fmt.Fprintf(w, "Update templates:\t%v\n", info.SupportsDescriptorUpdateTemplate)
	fmt.Fprintf(w, "Binding-id-alias erratum:\t%v\n", info.BugBindingIDAlias)
	return w.Flush()
}
