// Command gen-operator-key generates an operator key and its Argon2id
// hash. The plaintext goes to the operator; the hash goes into the
// ADMIN_KEY_HASH environment variable of the API server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lumident/lumident/internal/auth"
)

type output struct {
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
	KeyHash   string `json:"key_hash"`
}

func main() {
	format := flag.String("format", "plain", "Output format: plain or json")
	flag.Parse()

	generated, err := auth.GenerateOperatorKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate operator key:", err)
		os.Exit(1)
	}

	out := output{
		Key:       generated.Plaintext,
		KeyPrefix: generated.Prefix,
		KeyHash:   generated.Hash,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println("key: ", out.Key)
		fmt.Println("hash:", out.KeyHash)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
