package main

import "blabber/cmd"

func main() {
	cmd.Execute()
}
