// ./main.go
package main

import (
	"github.com/karavolt/surveyor-cli/cmd"
)

func main() {
	// Execute the root command defined in the cmd package.
	cmd.Execute()
}
