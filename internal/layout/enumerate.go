package layout

import "os"

// EnumerateChunksInFile lists the logical block numbers present in the
// file group starting at base (which must already be file-group aligned,
// i.e. a multiple of MaxBlocks). It never loads block values, only probes
// for their presence when a trailer marks the file as possibly holey.
func (e *Engine) EnumerateChunksInFile(bucket, uuidBytes []byte, base uint64) ([]uint64, error) {
	groupKey := EncodeGroupKey(uuidBytes, base)
	path := e.keyPath(bucket, groupKey)

	tombstoned, err := isTombstoned(path)
	if err != nil {
		if err == os.ErrNotExist {
			return nil, nil
		}
		return nil, err
	}
	if tombstoned {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	maxBlock := e.maxBlockFromSize(info.Size())
	if maxBlock < 0 {
		return nil, nil
	}

	if uint64(maxBlock) >= e.cfg.MaxBlocks {
		out := make([]uint64, 0, e.cfg.MaxBlocks)
		for i := uint64(0); i < e.cfg.MaxBlocks; i++ {
			if _, err := e.ReadBlock(bucket, uuidBytes, base+i); err == nil {
				out = append(out, base+i)
			}
		}
		return out, nil
	}

	out := make([]uint64, 0, maxBlock+1)
	for i := uint64(0); i <= uint64(maxBlock); i++ {
		out = append(out, base+i)
	}
	return out, nil
}
