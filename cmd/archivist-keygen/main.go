// Command archivist-keygen emits a fresh symmetric key, in the format the
// encryption layer expects, to a named path.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nightvault/archivist/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <keyfile-path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	path := flag.Arg(0)

	encoded, err := config.GenerateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("wrote new key to %s\n", path)
	return 0
}
