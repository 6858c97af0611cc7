package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rt := newRuntime(os.Stdin, os.Stdout)

	rootCmd := &cobra.Command{
		Use:           "board",
		Short:         "Task board client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			rt.init()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&rt.offline, "offline", false, "Use the local task file instead of the server")

	rootCmd.AddCommand(signupCmd(rt))
	rootCmd.AddCommand(loginCmd(rt))
	rootCmd.AddCommand(logoutCmd(rt))
	rootCmd.AddCommand(listCmd(rt))
	rootCmd.AddCommand(addCmd(rt))
	rootCmd.AddCommand(editCmd(rt))
	rootCmd.AddCommand(moveCmd(rt))
	rootCmd.AddCommand(deleteCmd(rt))
	rootCmd.AddCommand(shellCmd(rt))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}
