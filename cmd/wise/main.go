// wise gates text before it reaches a command and seals what comes out.
package main

import "github.com/ppiankov/wise/internal/cli"

func main() {
	cli.Execute()
}
