package main

import "github.com/curaious/tasky/cmd"

func main() {
	cmd.Execute()
}
