package main

import "skysheet/cmd"

func main() {
	cmd.Execute()
}
