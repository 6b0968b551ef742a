// Package mmap provides anonymous memory mappings used as off-heap storage.
//
// # Anonymous Mappings
//
// MapAnon() creates read-write anonymous mappings outside the Go garbage
// collector's control. The field value cache backs its packed arrays and
// term dictionaries with these mappings so that large forward indexes do not
// add to GC scan work.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc/VirtualFree
//
// # Thread Safety
//
// Close() is idempotent and protected by an atomic flag. Callers must ensure
// no goroutine touches Bytes() after Close() returns.
package mmap
