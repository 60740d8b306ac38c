package main

import (
	"os"
	"runtime/debug"

	"github.com/siyuan-infoblox/pypolicy/pkg/cmd"
)

func main() {
	moduleVersion := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		moduleVersion = info.Main.Version
	}
	if err := cmd.Execute(moduleVersion); err != nil {
		os.Exit(1)
	}
}
