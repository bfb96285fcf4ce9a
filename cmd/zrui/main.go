// Command zrui hosts the runtime against a real terminal, runs it headless
// for debug bundle capture, and drives an interactive demo screen, all
// behind one cobra root wrapped in fang.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zrui",
		Short: "Retained-mode terminal UI runtime",
		Long: `zrui drives a tree of components through layout, painting and a
binary drawlist wire format onto a terminal, or headless for debug capture.`,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(debugBundleCmd())
	rootCmd.AddCommand(demoCmd())

	ctx := context.Background()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}
