//go:build !(linux && amd64)

package taicheck

import "time"

func offsetAt(time.Time) (int, string, error) {
	return 0, "", ErrUnsupported
}
