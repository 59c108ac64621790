package main

import "github.com/songrank/songrank/cmd"

func main() {
	cmd.Execute()
}
