package main

import "github.com/example/tablecall/cmd"

func main() {
	cmd.Execute()
}
