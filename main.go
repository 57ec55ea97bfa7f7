package main

import "cratercat/cmd"

func main() {
	cmd.Execute()
}
