package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/flashvolt/blockvault/internal/backend"
)

func runFold(args []string, stdout, stderr *os.File) error {
	fs := flag.NewFlagSet("fold", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dataRoot := fs.String("data-root", "", "partition data root (required)")
	partition := fs.String("partition", "", "partition name (required)")
	blockSize := fs.Int("block-size", 0, "configured block size (required)")
	mode := fs.String("mode", "objects", "one of: buckets, keys, objects")

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

	switch *mode {
	case "buckets":
		return b.FoldBuckets(func(bucket []byte) error {
			_, err := fmt.Fprintf(stdout, "%s\n", bucket)
			return err
		})
	case "keys":
		return b.FoldKeys(func(bucket, key []byte) error {
			_, err := fmt.Fprintf(stdout, "%s\t%x\n", bucket, key)
			return err
		})
	case "objects":
		return b.FoldObjects(func(bucket, key, value []byte) error {
			_, err := fmt.Fprintf(stdout, "%s\t%x\t%d bytes\n", bucket, key, len(value))
			return err
		})
	default:
		return fmt.Errorf("unknown -mode %q", *mode)
	}
}
