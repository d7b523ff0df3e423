package main

import (
	"github.com/named-data/lfq/cmd"
	"github.com/named-data/lfq/std/log"
)

func main() {
	if err := cmd.CmdLfq().Execute(); err != nil {
		log.Fatal(nil, "Command failed", "err", err)
	}
}
