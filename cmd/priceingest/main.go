// Command priceingest validates CSV price lists, writes the products above a
// price threshold to a new file and serves the stored products over HTTP.
package main

import (
	"os"

	"github.com/JonMunkholm/priceingest/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
