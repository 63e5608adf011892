//go:build !linux && !darwin && !freebsd && !windows

package filemgr

func diskUsage(string) (diskSpace, error) {
	return diskSpace{}, errDiskUsageUnsupported
}
