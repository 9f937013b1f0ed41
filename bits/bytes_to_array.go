package bits

import (
	"encoding/binary"
	"unsafe"
)

// hostLittleEndian reports whether fixed-width buffers can be reinterpreted in place.
var hostLittleEndian = func() bool {
	var probe uint16 = 1
	return *(*byte)(unsafe.Pointer(&probe)) == 1
}()

type fixedWidth interface {
	~int64 | ~uint64 | ~float64
}

// MapBytesToArray copies a little-endian fixed-width buffer into a typed slice.
// On little-endian hosts this is a single memmove.
func MapBytesToArray[T fixedWidth](data []byte, count int) []T {
	out := make([]T, count)
	if count == 0 {
		return out
	}

	if hostLittleEndian {
		src := unsafe.Slice((*T)(unsafe.Pointer(&data[0])), count)
		copy(out, src)
		return out
	}

	for i := range out {
		u := binary.LittleEndian.Uint64(data[i*8:])
		out[i] = *(*T)(unsafe.Pointer(&u))
	}
	return out
}

// ArrayToBytes appends the little-endian representation of arr to dst.
func ArrayToBytes[T fixedWidth](dst []byte, arr []T) []byte {
	if len(arr) == 0 {
		return dst
	}

	if hostLittleEndian {
		raw := unsafe.Slice((*byte)(unsafe.Pointer(&arr[0])), len(arr)*8)
		return append(dst, raw...)
	}

	for _, v := range arr {
		dst = binary.LittleEndian.AppendUint64(dst, *(*uint64)(unsafe.Pointer(&v)))
	}
	return dst
}
