package main

import (
	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/rbaliyan/kmsheader"
)

func encryptCmd() *cobra.Command {
	var (
		arn        string
		pubKeyPath string
		alg        string
		inPath     string
		outPath    string
		asBase64   bool
	)

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Wrap key material under a KMS key's public half",
		Long: `Encrypt reads key material (from --in or stdin), wraps it with RSA-OAEP
under the given public key, and emits the complete header: ARN, algorithm
byte, and cipher data. The public key fixes the key spec, so the plaintext
must fit the spec's OAEP limit (190 bytes for RSA_2048 with SHA-256).

Wrapping happens locally; nothing is sent to AWS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := headerOptions(alg, "")
			if err != nil {
				return err
			}
			h, err := kmsheader.FromARN(arn, opts...)
			if err != nil {
				return err
			}
			if err := h.SetPublicKeyFile(pubKeyPath); err != nil {
				return err
			}

			plaintext, err := readInput(inPath)
			if err != nil {
				return err
			}
			// The buffer owns the plaintext from here; the source is wiped.
			buf := memguard.NewBufferFromBytes(plaintext)
			defer buf.Destroy()

			max, err := h.MaxPlaintext()
			if err != nil {
				return err
			}
			log.Debugf("wrapping %d bytes under %s (limit %d)", buf.Size(), h.KeySpec(), max)

			if err := h.Encrypt(buf.Bytes()); err != nil {
				return err
			}

			if asBase64 {
				s, err := h.Base64()
				if err != nil {
					return err
				}
				return writeOutput(outPath, []byte(s+"\n"))
			}
			data, err := h.Bytes()
			if err != nil {
				return err
			}
			return writeOutput(outPath, data)
		},
	}

	cmd.Flags().StringVar(&arn, "arn", "", "ARN of the wrapping key (required)")
	cmd.Flags().StringVar(&pubKeyPath, "public-key", "", "PEM file with the key's public half (required)")
	cmd.Flags().StringVar(&alg, "algorithm", "", "OAEP algorithm (default RSAES_OAEP_SHA_256)")
	cmd.Flags().StringVar(&inPath, "in", "", "key material to wrap (default: stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&asBase64, "base64", false, "emit base64 text instead of raw bytes")

	_ = cmd.MarkFlagRequired("arn")
	_ = cmd.MarkFlagRequired("public-key")
	return cmd
}
