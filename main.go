package main

import "github.com/bindery/galley/cmd"

func main() {
	cmd.Execute()
}
