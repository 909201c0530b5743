package main

import "github.com/fatalSec/DaliVM/cmd/dalivm/cmd"

func main() {
	cmd.Execute()
}
