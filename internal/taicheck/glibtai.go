//go:build linux && amd64

package taicheck

import (
	"encoding/binary"
	"time"

	"github.com/karasz/glibtai"
)

// offsetAt returns TAI-UTC at t and the TAI64 label of t.
func offsetAt(t time.Time) (int, string, error) {
	tai := glibtai.TAIfromTime(t)
	x := binary.BigEndian.Uint64(glibtai.TAIPack(tai))
	return int(x - glibtai.TAICONST - uint64(t.Unix())), tai.String(), nil
}
