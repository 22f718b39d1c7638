package main

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/rbaliyan/kmsheader"
	"github.com/rbaliyan/kmsheader/audit"
)

func auditCmd() *cobra.Command {
	var (
		bucket    string
		keyPrefix string
		region    string
		expectKey string
		nBytes    int
		workers   int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Scan a bucket's headers by prefix",
		Long: `Audit reads the first bytes of every object in an S3 bucket and aggregates
what the header prefixes reveal: which keys, accounts, regions, and
algorithms the blobs are wrapped under. Only --bytes bytes per object are
transferred.

With --expect-key, objects wrapped under any other key are listed as stale
rotation candidates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var loadOpts []func(*config.LoadOptions) error
			if region != "" {
				loadOpts = append(loadOpts, config.WithRegion(region))
			}
			cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
			if err != nil {
				return fmt.Errorf("load aws config: %w", err)
			}

			store := audit.NewS3Store(s3.NewFromConfig(cfg), bucket, audit.WithKeyPrefix(keyPrefix))

			opts := []audit.ScanOption{
				audit.WithPrefixLen(nBytes),
				audit.WithWorkers(workers),
			}
			if expectKey != "" {
				opts = append(opts, audit.WithExpectedKey(expectKey))
			}
			scanner, err := audit.NewScanner(store, opts...)
			if err != nil {
				return err
			}

			log.Debugf("scanning s3://%s/%s with %d workers, %d bytes per object", bucket, keyPrefix, workers, nBytes)
			report, scanErr := scanner.Scan(ctx)

			// The report is valid even when some objects failed; print it,
			// then surface the failures.
			if asJSON {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printReport(report)
			}
			return scanErr
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to scan (required)")
	cmd.Flags().StringVar(&keyPrefix, "prefix", "", "only scan objects under this key prefix")
	cmd.Flags().StringVar(&region, "region", "", "bucket region (default: ambient AWS config)")
	cmd.Flags().StringVar(&expectKey, "expect-key", "", "ARN of the key every object should be wrapped under")
	cmd.Flags().IntVar(&nBytes, "bytes", kmsheader.PrefixAlgorithm, "header bytes to read per object: 16, 32, 35, or 36")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent object reads")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

func printReport(r *audit.Report) {
	fmt.Printf("objects: %d\n", r.Objects)
	fmt.Printf("failed:  %d\n", r.Failed)
	printCounts("by key id", r.ByKeyID)
	printCounts("by account", r.ByAccount)
	printCounts("by region", r.ByRegion)
	printCounts("by algorithm", r.ByAlgorithm)
	if len(r.Stale) > 0 {
		fmt.Printf("\nstale (%d):\n", len(r.Stale))
		for _, key := range r.Stale {
			fmt.Printf("  %s\n", key)
		}
	}
}

// printCounts prints a count map, largest first, ties by name.
func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Printf("\n%s:\n", title)
	for _, name := range names {
		fmt.Printf("  %8d  %s\n", counts[name], name)
	}
}
