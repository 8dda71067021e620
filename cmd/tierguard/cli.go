package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "keygen":
		return runKeygen(args[2:])
	case "claim":
		if len(args) >= 3 {
			switch args[2] {
			case "sign":
				return runClaimSign(args[3:])
			case "verify":
				return runClaimVerify(args[3:])
			}
		}
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "tierguard"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s keygen [--out-seed <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s claim sign --address <hex> --tier <unverified|basic|verified|premium> --risk-score <0-100> --expiry <unix> (--key-hex <hex>|--key-base64 <b64>) [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s claim verify --in <envelope.json>\n", name)
}
