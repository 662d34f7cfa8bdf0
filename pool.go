package nexplock

import (
	"crypto/subtle"
	"sync"
)

// poolBufCap is the capacity of every buffer held in bufferPool. It is
// sized for the largest scratch buffer StorageService needs per chunk:
// a full BufferSize plaintext/ciphertext chunk plus its tag.
const poolBufCap = BufferSize + TagSize

// bufferPool is the process-wide pool of secure scratch buffers described
// in spec.md §5: every Rent is paired with a Return that zeroes the
// buffer before it becomes reusable.
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, poolBufCap)
		return &b
	},
}

// RentBuffer returns a zeroed scratch buffer of at least size bytes. The
// caller must pass it to ReturnBuffer when done; ReturnBuffer zeroes it
// before the underlying storage is made available to the next renter.
func RentBuffer(size int) []byte {
	if size > poolBufCap {
		// Larger than anything the pool stocks; caller owns it outright
		// and ReturnBuffer is a plain Zeroize, not a pool release.
		return make([]byte, size)
	}
	bp := bufferPool.Get().(*[]byte)
	buf := (*bp)[:size]
	Zeroize(buf)
	return buf
}

// ReturnBuffer zeroes buf and, if it came from the pool, releases it back
// for reuse. Buffers larger than poolBufCap are zeroed but not pooled.
func ReturnBuffer(buf []byte) {
	if buf == nil {
		return
	}
	Zeroize(buf)
	if cap(buf) != poolBufCap {
		return
	}
	full := buf[:poolBufCap]
	bufferPool.Put(&full)
}

// Zeroize overwrites b with zeros in a way the compiler cannot optimise
// away, so secret material does not linger in memory after the buffer
// holding it is released.
func Zeroize(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}
