// Command tbsim runs the built-in testbenches.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tbsim/tbsim/cmd"
)

func main() {
	atexit.Exit(cmd.Execute())
}
