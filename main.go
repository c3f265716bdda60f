package main

import "github.com/mabhi256/hangdiag/cmd"

func main() {
	cmd.Execute()
}
