package main

import (
	"fmt"

	"rvm/vm"
)

// runDemo assembles and runs two of the end-to-end scenarios this API is
// built to support: adding two constants, and an external call into a
// registered string-case callback.
func runDemo() error {
	if err := runAddConstantsDemo(); err != nil {
		return err
	}
	return runUpperCallDemo()
}

func runAddConstantsDemo() error {
	b := vm.NewBuilder()
	lhs := b.ConstInt(2)
	rhs := b.ConstInt(40)
	local0 := vm.Reg(0, vm.Local)

	b.Export("main").
		Alloc(1).
		Add(local0, lhs, rhs).
		StackPush(local0, vm.AsIs).
		Free(1).
		Ret()

	program, err := b.Finish()
	if err != nil {
		return err
	}

	in := vm.NewInterpreter(program)
	if err := in.ExecuteFunction("main"); err != nil {
		return err
	}
	fmt.Println("add-constants demo ran (expected top-of-stack: Int(42))")
	return nil
}

func runUpperCallDemo() error {
	b := vm.NewBuilder()
	greeting := b.ConstString("hi")
	upperImport := b.Import("strings.upper")

	b.Export("main").
		Alloc(1).
		StackPush(greeting, vm.AsIs).
		ExtCall(upperImport).
		Free(1).
		Ret()

	program, err := b.Finish()
	if err != nil {
		return err
	}

	in := vm.NewInterpreter(program)
	if err := registerDemoCallbacks(in); err != nil {
		return err
	}
	if err := in.ExecuteFunction("main"); err != nil {
		return err
	}
	fmt.Println(`external-call demo ran (expected top-of-stack: String("HI"))`)
	return nil
}
