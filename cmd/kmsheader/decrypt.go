package main

import (
	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/rbaliyan/kmsheader"
	"github.com/rbaliyan/kmsheader/awskms"
)

func decryptCmd() *cobra.Command {
	var (
		privKeyPath string
		inPath      string
		outPath     string
		fromBase64  bool
	)

	cmd := &cobra.Command{
		Use:   "decrypt [file]",
		Short: "Unwrap a header's key material",
		Long: `Decrypt parses a header (from a file or stdin) and unwraps its cipher data.
By default the wrapped material goes to AWS KMS in the region the header's
ARN names, using the ambient credential chain. With --private-key the RSA
private half is used locally instead and AWS is never contacted.

The plaintext key material is written to --out or stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := argOrEmpty(args)
			if path == "" && inPath != "" {
				path = inPath
			}
			data, err := readInput(path)
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

			var dec kmsheader.Decrypter
			if privKeyPath != "" {
				key, err := kmsheader.LoadPrivateKeyFile(privKeyPath)
				if err != nil {
					return err
				}
				dec, err = kmsheader.NewLocalDecrypter(key)
				if err != nil {
					return err
				}
				log.Debug("decrypting locally")
			} else {
				arn, _ := h.ARN()
				log.Debugf("decrypting via KMS in %s", arn.Region)
				dec = awskms.New()
			}

			plaintext, err := h.Decrypt(cmd.Context(), dec)
			if err != nil {
				return err
			}
			buf := memguard.NewBufferFromBytes(plaintext)
			defer buf.Destroy()

			return writeOutput(outPath, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&privKeyPath, "private-key", "", "PEM private key for local decryption (default: AWS KMS)")
	cmd.Flags().StringVar(&inPath, "in", "", "input file (default: stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&fromBase64, "base64", false, "input is base64 text")
	return cmd
}
