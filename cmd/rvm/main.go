package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rvm/vm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("rvm failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "rvm",
		Short: "Register-based virtual machine host",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")

	root.AddCommand(newRunCmd(), newDisasmCmd(), newDemoCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var recursionLimit int

	cmd := &cobra.Command{
		Use:   "run <file> <export>",
		Short: "Load a bytecode image and execute an exported entry point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := vm.ReadBytecodeFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			in := vm.NewInterpreter(program).WithConfig(vm.Config{RecursionLimit: recursionLimit})
			if err := registerDemoCallbacks(in); err != nil {
				return err
			}
			if err := in.ExecuteFunction(args[1]); err != nil {
				return fmt.Errorf("executing %s: %w", args[1], err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&recursionLimit, "recursion-limit", 1000, "maximum Call recursion depth")
	return cmd
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Print a program image's instructions, constants, imports and exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := vm.ReadBytecodeFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			printDisassembly(program)
			return nil
		},
	}
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Build and run the add-constants and external-call scenarios in-process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

func printDisassembly(p *vm.Program) {
	fmt.Println("constants:")
	for i, c := range p.Constants() {
		fmt.Printf("  [%d] %s\n", i, c)
	}
	fmt.Println("imports:")
	for i, name := range p.Imports() {
		fmt.Printf("  [%d] %s\n", i, name)
	}
	fmt.Println("exports:")
	for name, idx := range p.Exports() {
		fmt.Printf("  %s -> %d\n", name, idx)
	}
	fmt.Println("instructions:")
	for i, ins := range p.Instructions() {
		fmt.Printf("  %4d  %s\n", i, ins)
	}
}
