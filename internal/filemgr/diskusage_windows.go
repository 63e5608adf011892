//go:build windows

package filemgr

import "golang.org/x/sys/windows"

func diskUsage(path string) (diskSpace, error) {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return diskSpace{}, err
	}
	var available, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &available, &total, &free); err != nil {
		return diskSpace{}, err
	}
	return diskSpace{Total: total, Free: free, Available: available}, nil
}
