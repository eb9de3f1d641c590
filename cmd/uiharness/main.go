// Command uiharness runs UI acceptance scenarios against Tokodon.
package main

import "github.com/devicelab-dev/uiharness/pkg/cli"

func main() {
	cli.Execute()
}
