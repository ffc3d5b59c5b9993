package main

import "github.com/ggm-tools/ddlmodel/cmd"

func main() {
	cmd.Execute()
}
