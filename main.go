package main

import "github.com/lepinkainen/abacus/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
