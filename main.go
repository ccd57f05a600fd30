package main

import "htmlindex/cmd"

func main() {
	cmd.Execute()
}
