package main

import (
	"fmt"
	"math"
	"strings"

	"rvm/vm"
)

// registerDemoCallbacks wires up the small fixed set of host callbacks the
// demo and CLI use to exercise the callback bridge end to end: plain
// console IO, string case conversion, and one native-kind (status-code)
// callback alongside the managed ones.
func registerDemoCallbacks(in *vm.Interpreter) error {
	if err := in.RegisterManaged("console.write", func(s *vm.State) error {
		str, verr := s.PopString()
		if verr != nil {
			return verr
		}
		fmt.Print(str)
		return nil
	}); err != nil {
		return err
	}

	if err := in.RegisterManaged("console.writeln", func(s *vm.State) error {
		str, verr := s.PopString()
		if verr != nil {
			return verr
		}
		fmt.Println(str)
		return nil
	}); err != nil {
		return err
	}

	if err := in.RegisterManaged("strings.upper", func(s *vm.State) error {
		str, verr := s.PopString()
		if verr != nil {
			return verr
		}
		s.PushString(strings.ToUpper(str))
		return nil
	}); err != nil {
		return err
	}

	if err := in.RegisterManaged("strings.lower", func(s *vm.State) error {
		str, verr := s.PopString()
		if verr != nil {
			return verr
		}
		s.PushString(strings.ToLower(str))
		return nil
	}); err != nil {
		return err
	}

	return in.RegisterNative("math.sqrt", func(s *vm.State) int {
		f, verr := s.PopFloat()
		if verr != nil {
			return 1
		}
		if f < 0 {
			return 2
		}
		s.PushFloat(math.Sqrt(f))
		return 0
	})
}
