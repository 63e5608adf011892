//go:build linux || darwin || freebsd

package filemgr

import "golang.org/x/sys/unix"

func diskUsage(path string) (diskSpace, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return diskSpace{}, err
	}
	bsize := uint64(st.Bsize)
	return diskSpace{
		Total:     uint64(st.Blocks) * bsize,
		Free:      uint64(st.Bfree) * bsize,
		Available: uint64(st.Bavail) * bsize,
	}, nil
}
