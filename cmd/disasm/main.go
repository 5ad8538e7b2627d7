// Package main disassembles a bytecode resource or a raw bytecode file.
package main

import (
	"flag"
	"log"
	"os"

	"go.creack.net/anotherworld/disasm"
	"go.creack.net/anotherworld/resource"
)

func main() {
	id := flag.Int("id", -1, "bytecode resource id to disassemble from a data directory")
	flag.Parse()

	target := flag.Arg(0)
	if target == "" {
		target = "."
	}

	var code []byte
	if *id >= 0 {
		repo := resource.NewDirRepository(target)
		defer repo.Close()
		catalog, err := repo.Descriptors()
		if err != nil {
			log.Fatalf("Failed to read the catalog: %s.", err)
		}
		if *id >= len(catalog) {
			log.Fatalf("Resource 0x%02X out of range, the catalog has %d entries.", *id, len(catalog))
		}
		code, err = repo.Read(catalog[*id], make([]byte, catalog[*id].Size))
		if err != nil {
			log.Fatalf("Failed to read resource 0x%02X: %s.", *id, err)
		}
	} else {
		var err error
		code, err = os.ReadFile(target)
		if err != nil {
			log.Fatalf("Failed to read %q: %s.", target, err)
		}
	}

	if err := disasm.Fprint(os.Stdout, code); err != nil {
		log.Fatalf("Failed to write the listing: %s.", err)
	}
}
