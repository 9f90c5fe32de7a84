package main

import (
	"fmt"
	"os"

	"nossas-despesas/expense-import/cmd/batch"
	"nossas-despesas/expense-import/cmd/detect"
	"nossas-despesas/expense-import/cmd/importcmd"
	"nossas-despesas/expense-import/cmd/parse"
	"nossas-despesas/expense-import/cmd/root"
	"nossas-despesas/expense-import/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(detect.Cmd)
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
