package main

import "github.com/underlayhq/mcrelay/cmd/gate"

func main() {
	gate.Execute()
}
