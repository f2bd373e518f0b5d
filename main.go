package main

import (
	"os"

	"github.com/conneroisu/srcguard/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
