package versioninfo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// ErrTruncated 表示结构声明的长度超出了可用字节。
var ErrTruncated = errors.New("versioninfo: truncated data")

// view 是对原始字节的只读、带越界检查的访问器。所有读取都不会 panic。
type view []byte

func (v view) u16(off int) (uint16, error) {
	if off < 0 || off+2 > len(v) {
		return 0, fmt.Errorf("%w: u16 at %d (len %d)", ErrTruncated, off, len(v))
	}
	return binary.LittleEndian.Uint16(v[off:]), nil
}

func (v view) u32(off int) (uint32, error) {
	if off < 0 || off+4 > len(v) {
		return 0, fmt.Errorf("%w: u32 at %d (len %d)", ErrTruncated, off, len(v))
	}
	return binary.LittleEndian.Uint32(v[off:]), nil
}

func (v view) slice(off, n int) (view, error) {
	if off < 0 || n < 0 || off+n > len(v) {
		return nil, fmt.Errorf("%w: %d bytes at %d (len %d)", ErrTruncated, n, off, len(v))
	}
	return v[off : off+n], nil
}

// utf16z 从 off 开始读取以 0x0000 结尾的 UTF-16LE 串，最多读到 end。
// 返回解码后的字符串与终止符之后的偏移。
func (v view) utf16z(off, end int) (string, int, error) {
	if end > len(v) {
		end = len(v)
	}
	i := off
	for ; i+2 <= end; i += 2 {
		if v[i] == 0 && v[i+1] == 0 {
			s, err := decodeUTF16(v[off:i])
			return s, i + 2, err
		}
	}
	// 没有终止符：按到 end 为止处理（部分写入工具不写结尾 0）。
	s, err := decodeUTF16(v[off:i])
	return s, i, err
}

func decodeUTF16(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func align4(off int) int {
	return (off + 3) &^ 3
}
