package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbaliyan/kmsheader"
)

// partialJSON is the machine-readable form of an inspected prefix. Fields the
// prefix did not cover are omitted.
type partialJSON struct {
	KeyID     string `json:"key_id"`
	Account   string `json:"account,omitempty"`
	Region    string `json:"region,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	KeySpec   string `json:"key_spec,omitempty"`
}

func inspectCmd() *cobra.Command {
	var (
		nBytes int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Decode the fields a header prefix reveals",
		Long: `Inspect reads the first bytes of a blob (from a file or stdin) and prints
whichever header fields they determine, without touching the rest of the
object. 16 bytes reveal the key id, 32 the account, 35 the region, 36 the
algorithm and key spec.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInputPrefix(argOrEmpty(args), kmsheader.PrefixAlgorithm)
			if err != nil {
				return err
			}
			log.Debugf("read %d bytes", len(data))

			prefix := data
			if nBytes > 0 {
				if len(data) < nBytes {
					return fmt.Errorf("input has %d bytes, --bytes asked for %d", len(data), nBytes)
				}
				prefix = data[:nBytes]
			} else {
				prefix = longestInspectable(data)
			}

			p, err := kmsheader.Inspect(prefix)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(partialFields(prefix, p))
			}
			printPartial(prefix, p)
			return nil
		},
	}

	cmd.Flags().IntVar(&nBytes, "bytes", 0, "prefix length to decode: 16, 32, 35, or 36 (default: longest available)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// longestInspectable trims data to the longest prefix Inspect accepts.
func longestInspectable(data []byte) []byte {
	for _, n := range []int{
		kmsheader.PrefixAlgorithm,
		kmsheader.PrefixARN,
		kmsheader.PrefixAccount,
		kmsheader.PrefixKeyID,
	} {
		if len(data) >= n {
			return data[:n]
		}
	}
	return data
}

func partialFields(prefix []byte, p kmsheader.PartialHeader) partialJSON {
	out := partialJSON{KeyID: p.KeyID.String()}
	if len(prefix) >= kmsheader.PrefixAccount {
		out.Account = p.Account
	}
	if len(prefix) >= kmsheader.PrefixARN {
		out.Region = p.Region.String()
	}
	if len(prefix) >= kmsheader.PrefixAlgorithm {
		if p.Algorithm != 0 {
			out.Algorithm = p.Algorithm.String()
		}
		if p.KeySpec != 0 {
			out.KeySpec = p.KeySpec.String()
		}
	}
	return out
}

func printPartial(prefix []byte, p kmsheader.PartialHeader) {
	fmt.Printf("key-id:     %s\n", p.KeyID)
	if len(prefix) >= kmsheader.PrefixAccount {
		fmt.Printf("account:    %s\n", p.Account)
	}
	if len(prefix) >= kmsheader.PrefixARN {
		fmt.Printf("region:     %s\n", p.Region)
	}
	if len(prefix) >= kmsheader.PrefixAlgorithm {
		fmt.Printf("algorithm:  %s\n", label(p.Algorithm != 0, p.Algorithm.String()))
		fmt.Printf("key-spec:   %s\n", label(p.KeySpec != 0, p.KeySpec.String()))
	}
}

func label(set bool, s string) string {
	if !set {
		return "(unspecified)"
	}
	return s
}

func infoCmd() *cobra.Command {
	var fromBase64 bool

	cmd := &cobra.Command{
		Use:   "info [file]",
		Short: "Parse a complete header and show its contents",
		Long: `Info parses a full header (from a file or stdin) and prints every field,
the header's length, and how many payload bytes follow it. Use --base64 when
the input is base64 text rather than raw bytes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(argOrEmpty(args))
			if err != nil {
				return err
			}

			var h *kmsheader.Header
			if fromBase64 {
				h, err = kmsheader.ParseBase64(string(data))
			} else {
				h, err = kmsheader.Parse(data)
			}
			if err != nil {
				return err
			}

			arn, _ := h.ARN()
			fmt.Printf("arn:        %s\n", arn)
			fmt.Printf("algorithm:  %s\n", h.Algorithm())
			fmt.Printf("key-spec:   %s\n", label(h.KeySpec() != 0, h.KeySpec().String()))
			fmt.Printf("cipher:     %d bytes\n", len(h.CipherData()))
			fmt.Printf("header:     %d bytes\n", h.Len())
			if !fromBase64 && len(data) > h.Len() {
				fmt.Printf("payload:    %d bytes\n", len(data)-h.Len())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromBase64, "base64", false, "input is base64 text")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
