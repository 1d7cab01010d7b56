package main

import "github.com/litentry/enclave-client/cmd"

func main() {
	cmd.Execute()
}
