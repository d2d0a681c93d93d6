// Package versioninfotest 构造最小的 VS_VERSIONINFO 与 PE32+ 文件，供测试使用。
package versioninfotest

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"unicode/utf16"
)

// String 构造一个 String 块（wType=1，值为 UTF-16 且以 0 结尾）。
func String(key, value string) []byte {
	v := utf16z(value)
	return block(key, 1, len(v)/2, v)
}

// StringTable 构造一个 StringTable 块，langCP 形如 "040904B0"。
func StringTable(langCP string, strs ...[]byte) []byte {
	return block(langCP, 1, 0, nil, strs...)
}

// StringFileInfo 构造 StringFileInfo 块。
func StringFileInfo(tables ...[]byte) []byte {
	return block("StringFileInfo", 1, 0, nil, tables...)
}

// VarFileInfo 构造带 Translation 的 VarFileInfo 块；每对是 (语言ID, 代码页)。
func VarFileInfo(pairs ...[2]uint16) []byte {
	val := make([]byte, 0, 4*len(pairs))
	for _, p := range pairs {
		val = binary.LittleEndian.AppendUint16(val, p[0])
		val = binary.LittleEndian.AppendUint16(val, p[1])
	}
	return block("VarFileInfo", 1, 0, nil, block("Translation", 0, len(val), val))
}

// Fixed 构造 VS_FIXEDFILEINFO（文件版本与产品版本相同）。
func Fixed(major, minor, build, revision uint16) []byte {
	ms := uint32(major)<<16 | uint32(minor)
	ls := uint32(build)<<16 | uint32(revision)
	words := []uint32{
		0xFEEF04BD, 0x00010000,
		ms, ls, ms, ls,
		0x3F, 0, 0x40004, 2, 0, 0, 0,
	}
	out := make([]byte, 0, 52)
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

// VersionInfo 构造完整的 VS_VERSIONINFO；fixed 可为 nil。
func VersionInfo(fixed []byte, children ...[]byte) []byte {
	return block("VS_VERSION_INFO", 0, len(fixed), fixed, children...)
}

func block(key string, typ uint16, valueLength int, value []byte, children ...[]byte) []byte {
	var b bytes.Buffer
	b.Write(make([]byte, 6))
	b.Write(utf16z(key))
	pad4(&b)
	b.Write(value)
	for _, c := range children {
		pad4(&b)
		b.Write(c)
	}
	out := b.Bytes()
	binary.LittleEndian.PutUint16(out[0:], uint16(len(out)))
	binary.LittleEndian.PutUint16(out[2:], uint16(valueLength))
	binary.LittleEndian.PutUint16(out[4:], typ)
	return out
}

func utf16z(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return append(out, 0, 0)
}

func pad4(b *bytes.Buffer) {
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
}

const (
	rsrcRVA       = 0x1000
	fileAlignment = 0x200
	headerSize    = 0x200
)

// PE 构造一个只含 .rsrc 节的 PE32+ 映像，其中 RT_VERSION 资源内容为 versionInfo。
// versionInfo 为 nil 时生成不带资源目录的 PE。
func PE(versionInfo []byte) []byte {
	var rsrc []byte
	if versionInfo != nil {
		rsrc = resourceSection(versionInfo)
	}
	rawSize := align(len(rsrc), fileAlignment)
	if rawSize == 0 {
		rawSize = fileAlignment
	}

	var b bytes.Buffer

	dos := make([]byte, 0x40)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3c:], 0x40)
	b.Write(dos)
	b.WriteString("PE\x00\x00")

	fh := pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_AMD64,
		NumberOfSections:     1,
		SizeOfOptionalHeader: 240,
		Characteristics:      pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_DLL | pe.IMAGE_FILE_LARGE_ADDRESS_AWARE,
	}
	_ = binary.Write(&b, binary.LittleEndian, fh)

	oh := pe.OptionalHeader64{
		Magic:               0x20b,
		ImageBase:           0x180000000,
		SectionAlignment:    0x1000,
		FileAlignment:       fileAlignment,
		SizeOfImage:         uint32(rsrcRVA + align(rawSize, 0x1000)),
		SizeOfHeaders:       headerSize,
		Subsystem:           pe.IMAGE_SUBSYSTEM_WINDOWS_GUI,
		NumberOfRvaAndSizes: 16,
	}
	if rsrc != nil {
		oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE] = pe.DataDirectory{
			VirtualAddress: rsrcRVA,
			Size:           uint32(len(rsrc)),
		}
	}
	_ = binary.Write(&b, binary.LittleEndian, oh)

	sh := pe.SectionHeader32{
		VirtualSize:      uint32(len(rsrc)),
		VirtualAddress:   rsrcRVA,
		SizeOfRawData:    uint32(rawSize),
		PointerToRawData: headerSize,
		Characteristics:  pe.IMAGE_SCN_CNT_INITIALIZED_DATA | pe.IMAGE_SCN_MEM_READ,
	}
	copy(sh.Name[:], ".rsrc")
	_ = binary.Write(&b, binary.LittleEndian, sh)

	for b.Len() < headerSize {
		b.WriteByte(0)
	}
	b.Write(rsrc)
	for b.Len() < headerSize+rawSize {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// resourceSection 生成三级资源目录：RT_VERSION -> ID 1 -> 语言 0x409 -> 数据项。
func resourceSection(data []byte) []byte {
	const (
		typeDir   = 0x00
		nameDir   = 0x18
		langDir   = 0x30
		dataEntry = 0x48
		payload   = 0x58
	)
	out := make([]byte, payload)
	dir := func(at int, id, target uint32) {
		binary.LittleEndian.PutUint16(out[at+14:], 1) // NumberOfIdEntries
		binary.LittleEndian.PutUint32(out[at+16:], id)
		binary.LittleEndian.PutUint32(out[at+20:], target)
	}
	dir(typeDir, 16, 0x80000000|nameDir)
	dir(nameDir, 1, 0x80000000|langDir)
	dir(langDir, 0x409, dataEntry)
	binary.LittleEndian.PutUint32(out[dataEntry:], rsrcRVA+payload)
	binary.LittleEndian.PutUint32(out[dataEntry+4:], uint32(len(data)))
	return append(out, data...)
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}
