package main

import (
	"github.com/spf13/cobra"

	"github.com/rbaliyan/kmsheader"
)

// headerOptions converts the shared --algorithm / --key-spec flag values.
func headerOptions(alg, keySpec string) ([]kmsheader.Option, error) {
	var opts []kmsheader.Option
	if alg != "" {
		a, err := kmsheader.ParseAlgorithm(alg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kmsheader.WithAlgorithm(a))
	}
	if keySpec != "" {
		s, err := kmsheader.ParseKeySpec(keySpec)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kmsheader.WithKeySpec(s))
	}
	return opts, nil
}

func encodeCmd() *cobra.Command {
	var (
		arn      string
		alg      string
		keySpec  string
		asBase64 bool
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a key ARN into header bytes",
		Long: `Encode converts a key ARN into its binary header form: 35 bytes, or 36 when
--key-spec adds the algorithm byte. The output carries no cipher data; use
encrypt to wrap key material.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := headerOptions(alg, keySpec)
			if err != nil {
				return err
			}
			h, err := kmsheader.FromARN(arn, opts...)
			if err != nil {
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
			log.Debugf("encoded %d header bytes", len(data))
			return writeOutput(outPath, data)
		},
	}

	cmd.Flags().StringVar(&arn, "arn", "", "key ARN to encode (required)")
	cmd.Flags().StringVar(&alg, "algorithm", "", "OAEP algorithm: RSAES_OAEP_SHA_1 or RSAES_OAEP_SHA_256")
	cmd.Flags().StringVar(&keySpec, "key-spec", "", "key spec: RSA_2048, RSA_3072, or RSA_4096")
	cmd.Flags().BoolVar(&asBase64, "base64", false, "emit base64 text instead of raw bytes")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")

	_ = cmd.MarkFlagRequired("arn")
	return cmd
}
