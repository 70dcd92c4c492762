// Command hashkey prints the bcrypt hash of an API key for HTTP_API_KEY_HASHES.
//
//	hashkey [-cost 12] <key>
//	echo -n <key> | hashkey
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/scrimhub/scrim-lineup/internal/interface/http/handlers"
)

func main() {
	cost := flag.Int("cost", 0, "bcrypt cost (0 = default)")
	flag.Parse()

	key := flag.Arg(0)
	if key == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashkey [-cost n] <key>")
			os.Exit(2)
		}
		key = strings.TrimSpace(line)
	}

	hash, err := handlers.HashAPIKey(key, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashkey: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
