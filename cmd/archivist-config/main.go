// Command archivist-config manages the encrypted section of the archivist
// configuration file. Its one subcommand, set, re-encrypts a single value
// in place and atomically rewrites the file, preserving every other entry:
//
//	archivist-config set <group> <key> <value>
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
	configPath := flag.String("config", "/etc/archivist.yaml", "path to the archivist configuration file")
	keyfilePath := flag.String("keyfile", "/etc/fernet.key", "path to the symmetric keyfile")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] set <group> <key> <value>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 4 || flag.Arg(0) != "set" {
		flag.Usage()
		return 1
	}
	group, name, value := flag.Arg(1), flag.Arg(2), flag.Arg(3)

	key, err := config.LoadKey(*keyfilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load(*configPath, key)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := cfg.Set("secrets."+group+"."+name, value); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("updated secrets.%s.%s in %s\n", group, name, *configPath)
	return 0
}
