package main

import "github.com/parthshah1/flowctl/cmd"

func main() {
	cmd.Execute()
}
