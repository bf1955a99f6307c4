package backend

import (
	"fmt"
	"os"
	"strconv"

	"github.com/flashvolt/blockvault/internal/verrors"
)

// DefaultMaxBlocks is the system-constant fallback for Config.MaxBlocks
// per spec.md §6.
const DefaultMaxBlocks = 1024

// DefaultBDepth and DefaultKDepth are the path encoder's default nesting
// depths.
const (
	DefaultBDepth = 2
	DefaultKDepth = 2
)

// DefaultManifestSaveIntervalMS is the upload FSM's default manifest-save
// tick period.
const DefaultManifestSaveIntervalMS = 60000

// DefaultBlockBucketPrefix is used when Config.BlockBucketPrefix is left
// empty.
var DefaultBlockBucketPrefix = []byte("#blocks:")

// Config resolves to a partition's on-disk configuration. Any zero-valued
// field is filled in from the matching environment variable before
// validation, per spec.md §6 ("Each key may also be resolved from the
// host process environment if unset in the explicit config").
type Config struct {
	DataRoot          string
	BlockSize         int
	MaxBlocks         uint64
	BDepth            int
	KDepth            int
	BlockBucketPrefix []byte
	BackendID         string
}

const (
	envDataRoot  = "BLOCKVAULT_DATA_ROOT"
	envBlockSize = "BLOCKVAULT_BLOCK_SIZE"
	envMaxBlocks = "BLOCKVAULT_MAX_BLOCKS"
	envBDepth    = "BLOCKVAULT_B_DEPTH"
	envKDepth    = "BLOCKVAULT_K_DEPTH"
)

// Option overrides a Config field at Start time, the same functional-options
// shape segmentmanager.DiskSegmentManagerOption uses.
type Option func(*Config)

// WithBlockSize overrides Config.BlockSize.
func WithBlockSize(n int) Option {
	return func(c *Config) { c.BlockSize = n }
}

// WithMaxBlocks overrides Config.MaxBlocks.
func WithMaxBlocks(n uint64) Option {
	return func(c *Config) { c.MaxBlocks = n }
}

// WithDepths overrides Config.BDepth and Config.KDepth together, since a
// partition's nesting depths are only ever meaningful as a pair.
func WithDepths(bDepth, kDepth int) Option {
	return func(c *Config) { c.BDepth = bDepth; c.KDepth = kDepth }
}

// WithBlockBucketPrefix overrides Config.BlockBucketPrefix.
func WithBlockBucketPrefix(prefix []byte) Option {
	return func(c *Config) { c.BlockBucketPrefix = prefix }
}

func (c Config) resolved() (Config, error) {
	out := c

	if out.DataRoot == "" {
		out.DataRoot = os.Getenv(envDataRoot)
	}
	if out.DataRoot == "" {
		return Config{}, fmt.Errorf("%w: data_root is required", verrors.ErrConfig)
	}

	if out.BlockSize == 0 {
		if v, ok := os.LookupEnv(envBlockSize); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", verrors.ErrConfig, envBlockSize, err)
			}
			out.BlockSize = n
		}
	}
	if out.BlockSize <= 0 {
		return Config{}, fmt.Errorf("%w: block_size is required and must be positive", verrors.ErrConfig)
	}
	if out.BlockSize >= (1 << 32) {
		return Config{}, fmt.Errorf("%w: block_size must be < 2^32", verrors.ErrConfig)
	}

	if out.MaxBlocks == 0 {
		if v, ok := os.LookupEnv(envMaxBlocks); ok {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", verrors.ErrConfig, envMaxBlocks, err)
			}
			out.MaxBlocks = n
		}
	}
	if out.MaxBlocks == 0 {
		out.MaxBlocks = DefaultMaxBlocks
	}

	if out.BDepth == 0 {
		if v, ok := os.LookupEnv(envBDepth); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", verrors.ErrConfig, envBDepth, err)
			}
			out.BDepth = n
		} else {
			out.BDepth = DefaultBDepth
		}
	}
	if out.BDepth < 0 {
		return Config{}, fmt.Errorf("%w: b_depth must be non-negative", verrors.ErrConfig)
	}

	if out.KDepth == 0 {
		if v, ok := os.LookupEnv(envKDepth); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", verrors.ErrConfig, envKDepth, err)
			}
			out.KDepth = n
		} else {
			out.KDepth = DefaultKDepth
		}
	}
	if out.KDepth < 0 {
		return Config{}, fmt.Errorf("%w: k_depth must be non-negative", verrors.ErrConfig)
	}

	if len(out.BlockBucketPrefix) == 0 {
		out.BlockBucketPrefix = DefaultBlockBucketPrefix
	}

	return out, nil
}
