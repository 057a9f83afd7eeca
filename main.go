package main

import "github.com/rahadianw/dealer-crm/cmd"

func main() {
	cmd.Execute()
}
