package backend

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/flashvolt/blockvault/internal/pathenc"
	"github.com/flashvolt/blockvault/internal/verrors"
)

const versionNumber = 1

type versionRecord struct {
	backendID string
	version   int
	blockSize int
	maxBlocks uint64
	bDepth    int
	kDepth    int
}

func versionFilePath(partitionDir string) string {
	return filepath.Join(partitionDir, pathenc.VersionFileName)
}

// loadOrCreateVersionFile enforces the startup check from spec.md §6: a
// partition whose recorded block_size/max_blocks is smaller than what's
// configured now, or whose depths differ, refuses to start.
func loadOrCreateVersionFile(partitionDir string, cfg Config) error {
	path := versionFilePath(partitionDir)

	existing, err := readVersionFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			backendID := cfg.BackendID
			if backendID == "" {
				backendID = uuid.New().String()
			}
			return writeVersionFile(path, versionRecord{
				backendID: backendID,
				version:   versionNumber,
				blockSize: cfg.BlockSize,
				maxBlocks: cfg.MaxBlocks,
				bDepth:    cfg.BDepth,
				kDepth:    cfg.KDepth,
			})
		}
		return fmt.Errorf("%w: reading version file: %v", verrors.ErrConfig, err)
	}

	if cfg.BlockSize > existing.blockSize {
		return fmt.Errorf("%w: configured block_size %d exceeds stored %d", verrors.ErrConfig, cfg.BlockSize, existing.blockSize)
	}
	if cfg.MaxBlocks > existing.maxBlocks {
		return fmt.Errorf("%w: configured max_blocks %d exceeds stored %d", verrors.ErrConfig, cfg.MaxBlocks, existing.maxBlocks)
	}
	if cfg.BDepth != existing.bDepth {
		return fmt.Errorf("%w: configured b_depth %d does not match stored %d", verrors.ErrConfig, cfg.BDepth, existing.bDepth)
	}
	if cfg.KDepth != existing.kDepth {
		return fmt.Errorf("%w: configured k_depth %d does not match stored %d", verrors.ErrConfig, cfg.KDepth, existing.kDepth)
	}

	return nil
}

func readVersionFile(path string) (versionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return versionRecord{}, err
	}
	defer f.Close()

	fields := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		fields[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return versionRecord{}, err
	}

	var rec versionRecord
	rec.backendID = fields["backend_id"]
	rec.version, _ = strconv.Atoi(fields["version"])
	rec.blockSize, _ = strconv.Atoi(fields["block_size"])
	maxBlocks, _ := strconv.ParseUint(fields["max_blocks"], 10, 64)
	rec.maxBlocks = maxBlocks
	rec.bDepth, _ = strconv.Atoi(fields["b_depth"])
	rec.kDepth, _ = strconv.Atoi(fields["k_depth"])
	return rec, nil
}

func writeVersionFile(path string, rec versionRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "backend_id=%s\n", rec.backendID)
	fmt.Fprintf(&b, "version=%d\n", rec.version)
	fmt.Fprintf(&b, "block_size=%d\n", rec.blockSize)
	fmt.Fprintf(&b, "max_blocks=%d\n", rec.maxBlocks)
	fmt.Fprintf(&b, "b_depth=%d\n", rec.bDepth)
	fmt.Fprintf(&b, "k_depth=%d\n", rec.kDepth)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
