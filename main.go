package main

import "edi-exchange/cmd"

func main() {
	cmd.Execute()
}
