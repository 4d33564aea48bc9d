package main

import (
	"fmt"
	"os"

	"github.com/0xcro3dile/resume-intel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
