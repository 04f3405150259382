//go:build windows

package link

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"syscall"
	"unicode/utf16"

	"golang.org/x/sys/windows"
)

func junctionsSupported() bool {
	return true
}

func hardlink(source, dest string) error {
	return os.Link(source, dest)
}

// isPrivilegeError reports whether a link creation failure was caused
// by missing privileges. ERROR_PRIVILEGE_NOT_HELD is what CreateSymbolicLink
// returns outside developer mode.
func isPrivilegeError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == windows.ERROR_PRIVILEGE_NOT_HELD || errno == windows.ERROR_ACCESS_DENIED
	}
	return false
}

// createJunction creates a directory junction at dest pointing to
// source by writing an IO_REPARSE_TAG_MOUNT_POINT reparse point.
// Junctions need no elevation, which is the whole reason they sit first
// in the cascade.
func createJunction(source, dest string) error {
	if err := os.Mkdir(dest, 0755); err != nil {
		return err
	}

	destPtr, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		_ = os.Remove(dest)
		return err
	}

	h, err := windows.CreateFile(destPtr, windows.GENERIC_WRITE, 0, nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT, 0)
	if err != nil {
		_ = os.Remove(dest)
		return err
	}
	defer func() { _ = windows.CloseHandle(h) }()

	data := mountPointReparseData(source)
	var returned uint32
	if err := windows.DeviceIoControl(h, windows.FSCTL_SET_REPARSE_POINT,
		&data[0], uint32(len(data)), nil, 0, &returned, nil); err != nil {
		_ = os.Remove(dest)
		return err
	}
	return nil
}

// mountPointReparseData builds a REPARSE_DATA_BUFFER for a mount point.
// The substitute name carries the NT namespace prefix; the print name is
// the plain path shown to users.
func mountPointReparseData(target string) []byte {
	sub := utf16.Encode([]rune(`\??\` + target))
	prn := utf16.Encode([]rune(target))

	subBytes := 2 * len(sub)
	prnBytes := 2 * len(prn)
	// path buffer: substitute + NUL + print + NUL
	pathBufBytes := subBytes + 2 + prnBytes + 2
	reparseDataLength := 8 + pathBufBytes

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(windows.IO_REPARSE_TAG_MOUNT_POINT))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(reparseDataLength))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0)) // Reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0)) // SubstituteNameOffset
	_ = binary.Write(&buf, binary.LittleEndian, uint16(subBytes))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(subBytes+2)) // PrintNameOffset
	_ = binary.Write(&buf, binary.LittleEndian, uint16(prnBytes))
	for _, u := range sub {
		_ = binary.Write(&buf, binary.LittleEndian, u)
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	for _, u := range prn {
		_ = binary.Write(&buf, binary.LittleEndian, u)
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))

	return buf.Bytes()
}
