package main

import "github.com/oladanielT/support-system/cmd"

func main() {
	cmd.Execute()
}
