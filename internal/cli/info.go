package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lzoffoli-tg/checkupy/onnx"
)

func infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info MODEL",
		Short: "Show ONNX model metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := onnx.GetModelInfo(args[0])
			if err != nil {
				return err
			}
			return writeInfo(cmd.OutOrStdout(), info)
		},
	}
}

func writeInfo(w io.Writer, info *onnx.ModelInfo) error {
	var b strings.Builder
	fmt.Fprintf(&b, "IR version:   %d\n", info.IRVersion)
	fmt.Fprintf(&b, "Opset:        %d\n", info.OpsetVersion)
	fmt.Fprintf(&b, "Producer:     %s %s\n", info.ProducerName, info.ProducerVersion)
	fmt.Fprintf(&b, "Inputs:       %s\n", strings.Join(info.InputNames, ", "))
	fmt.Fprintf(&b, "Outputs:      %s\n", strings.Join(info.OutputNames, ", "))
	fmt.Fprintf(&b, "Nodes:        %d\n", info.NodeCount)
	fmt.Fprintf(&b, "Initializers: %d\n", info.WeightCount)
	fmt.Fprintf(&b, "Operators:    %s\n", strings.Join(info.Operators, ", "))
	for _, k := range slices.Sorted(maps.Keys(info.Metadata)) {
		fmt.Fprintf(&b, "  %s: %s\n", k, info.Metadata[k])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func opsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List operators supported by the native engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, op := range onnx.ListSupportedOps() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), op); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
