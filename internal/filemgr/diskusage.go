package filemgr

import "errors"

var errDiskUsageUnsupported = errors.New("disk usage is not supported on this platform")

type diskSpace struct {
	Total     uint64
	Free      uint64
	Available uint64
}
