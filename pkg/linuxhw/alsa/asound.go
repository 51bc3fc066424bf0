//go:build linux

package alsa

import "unsafe"

// Compile-time struct size assertions.
// These will cause build failures if struct sizes don't match kernel expectations.
var (
	_ [376]byte = [unsafe.Sizeof(sndCtlCardInfo{})]byte{}
	_ [288]byte = [unsafe.Sizeof(sndPCMInfo{})]byte{}
)

// Control interface IOCTLs. The argument structs contain no pointers or
// longs, so the encoded sizes (and therefore the request numbers) are
// identical on 32-bit and 64-bit architectures.
const (
	sndrvCtlIoctlCardInfo      = 0x81785501
	sndrvCtlIoctlPCMNextDevice = 0x80045530
	sndrvCtlIoctlPCMInfo       = 0xc1205531
)

// sndCtlCardInfo has size 376 bytes.
type sndCtlCardInfo struct {
	card       int32     // offset 0
	_          [4]byte   // padding
	id         [16]byte  // offset 8
	driver     [16]byte  // offset 24
	name       [32]byte  // offset 40
	longname   [80]byte  // offset 72
	reserved   [16]byte  // offset 152
	mixername  [80]byte  // offset 168
	components [128]byte // offset 248
}

// sndPCMInfo has size 288 bytes.
type sndPCMInfo struct {
	device          uint32   // offset 0
	subdevice       uint32   // offset 4
	stream          int32    // offset 8
	card            int32    // offset 12
	id              [64]byte // offset 16
	name            [80]byte // offset 80
	subname         [32]byte // offset 160
	devClass        int32    // offset 192
	devSubclass     int32    // offset 196
	subdevicesCount uint32   // offset 200
	subdevicesAvail uint32   // offset 204
	_               [16]byte // padding
	reserved        [64]byte // offset 224
}
