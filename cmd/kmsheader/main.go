// Command kmsheader inspects, builds, encrypts, and unwraps the binary
// headers that prefix KMS-wrapped blobs.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

func main() {
	// Interrupts wipe key material before the process dies.
	memguard.CatchInterrupt()

	// AWS credentials and defaults may live in a .env file; real environment
	// variables win.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		memguard.SafeExit(1)
	}
	memguard.SafeExit(0)
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "kmsheader",
		Short: "Inspect, build, and unwrap KMS key-wrapping headers",
		Long: `kmsheader works with the 36-byte binary header that prefixes blobs whose
key material is wrapped by an asymmetric AWS KMS key. The header encodes the
wrapping key's ARN, the RSA-OAEP algorithm, and the wrapped key itself, and
its prefixes are meaningful on their own: 16 bytes name the key, 32 add the
account, 35 the region, 36 the algorithm.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			log.SetOutput(os.Stderr)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		inspectCmd(),
		infoCmd(),
		encodeCmd(),
		encryptCmd(),
		decryptCmd(),
		auditCmd(),
		versionCmd(),
	)
	return cmd
}

// readInput reads from the named file, or stdin when path is "" or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// readInputPrefix reads at most n bytes from the named file or stdin.
func readInputPrefix(path string, n int) ([]byte, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return buf[:read], nil
}

// writeOutput writes to the named file, or stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
