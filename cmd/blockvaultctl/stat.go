package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/flashvolt/blockvault/internal/backend"
)

func runStat(args []string, stdout, stderr *os.File) error {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dataRoot := fs.String("data-root", "", "partition data root (required)")
	partition := fs.String("partition", "", "partition name (required)")
	blockSize := fs.Int("block-size", 0, "configured block size (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataRoot == "" || *partition == "" || *blockSize == 0 {
		return fmt.Errorf("--data-root, --partition and --block-size are all required")
	}

	b, err := backend.Start(*partition, backend.Config{DataRoot: *dataRoot, BlockSize: *blockSize})
	if err != nil {
		return err
	}

	cfg := b.Config()
	caps := b.Capabilities()
	empty, err := b.IsEmpty()
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "data_root:          %s\n", cfg.DataRoot)
	fmt.Fprintf(stdout, "block_size:         %d\n", cfg.BlockSize)
	fmt.Fprintf(stdout, "max_blocks:         %d\n", cfg.MaxBlocks)
	fmt.Fprintf(stdout, "b_depth:            %d\n", cfg.BDepth)
	fmt.Fprintf(stdout, "k_depth:            %d\n", cfg.KDepth)
	fmt.Fprintf(stdout, "block_bucket_prefix: %s\n", cfg.BlockBucketPrefix)
	fmt.Fprintf(stdout, "is_empty:           %v\n", empty)
	fmt.Fprintf(stdout, "async_fold:         %v\n", caps.AsyncFold)
	fmt.Fprintf(stdout, "write_once_keys:    %v\n", caps.WriteOnceKeys)
	fmt.Fprintf(stdout, "put_plus_object:    %v\n", caps.PutPlusObject)
	return nil
}
