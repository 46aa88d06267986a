package main

import "cdrq/cmd"

func main() {
	cmd.Execute()
}
