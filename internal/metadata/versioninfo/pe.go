package versioninfo

import (
	"debug/pe"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	resourceDirectoryIndex = 2  // IMAGE_DIRECTORY_ENTRY_RESOURCE
	rtVersion              = 16 // RT_VERSION

	resourceDirHeaderSize = 16
	resourceEntrySize     = 8
	subdirectoryFlag      = 0x80000000

	// 资源目录的合理上限；超过通常意味着头部损坏。
	maxResourceSize = 64 << 20
)

var ErrNoVersionResource = errors.New("versioninfo: no RT_VERSION resource")

// ReadFile 打开 PE 文件（.dll / .vst3 / .aax 等）并解析其版本资源。
func ReadFile(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read 从任意 io.ReaderAt 解析 PE 的版本资源。
func Read(r io.ReaderAt) (*Info, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := versionResource(f)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func versionResource(f *pe.File) ([]byte, error) {
	dd, ok := resourceDataDirectory(f)
	if !ok || dd.VirtualAddress == 0 || dd.Size == 0 {
		return nil, ErrNoVersionResource
	}
	if dd.Size > maxResourceSize {
		return nil, fmt.Errorf("versioninfo: resource directory too large (%d bytes)", dd.Size)
	}
	rsrc, err := readRVA(f, dd.VirtualAddress, dd.Size)
	if err != nil {
		return nil, err
	}
	v := view(rsrc)

	// 三级目录：类型 -> 名称 -> 语言 -> 数据项。
	typeDir, isDir, err := findEntry(v, 0, rtVersion)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, ErrNoVersionResource
	}
	nameDir, isDir, err := firstEntry(v, typeDir)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, ErrNoVersionResource
	}
	dataEntry, isDir, err := firstEntry(v, nameDir)
	if err != nil {
		return nil, err
	}
	if isDir {
		return nil, ErrNoVersionResource
	}

	rva, err := v.u32(dataEntry)
	if err != nil {
		return nil, err
	}
	size, err := v.u32(dataEntry + 4)
	if err != nil {
		return nil, err
	}
	if size == 0 || size > maxResourceSize {
		return nil, fmt.Errorf("versioninfo: bad RT_VERSION size %d", size)
	}
	return readRVA(f, rva, size)
}

func resourceDataDirectory(f *pe.File) (pe.DataDirectory, bool) {
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes <= resourceDirectoryIndex {
			return pe.DataDirectory{}, false
		}
		return oh.DataDirectory[resourceDirectoryIndex], true
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes <= resourceDirectoryIndex {
			return pe.DataDirectory{}, false
		}
		return oh.DataDirectory[resourceDirectoryIndex], true
	default:
		return pe.DataDirectory{}, false
	}
}

// readRVA 把 [rva, rva+size) 映射到所在节的原始数据并读出。
func readRVA(f *pe.File, rva, size uint32) ([]byte, error) {
	for _, s := range f.Sections {
		start := s.VirtualAddress
		span := s.VirtualSize
		if s.Size > span {
			span = s.Size
		}
		if rva < start || uint64(rva)+uint64(size) > uint64(start)+uint64(span) {
			continue
		}
		off := int64(rva - start)
		if off+int64(size) > int64(s.Size) {
			return nil, fmt.Errorf("%w: rva 0x%x+%d outside raw data of %s", ErrTruncated, rva, size, s.Name)
		}
		buf := make([]byte, size)
		if _, err := s.ReadAt(buf, off); err != nil {
			return nil, err
		}
		return buf, nil
	}
	return nil, fmt.Errorf("versioninfo: rva 0x%x not mapped by any section", rva)
}

// findEntry 在 dir 处的资源目录中查找数值 ID 为 id 的项。
func findEntry(v view, dir int, id uint32) (int, bool, error) {
	named, err := v.u16(dir + 12)
	if err != nil {
		return 0, false, err
	}
	ids, err := v.u16(dir + 14)
	if err != nil {
		return 0, false, err
	}
	first := dir + resourceDirHeaderSize + int(named)*resourceEntrySize
	for i := 0; i < int(ids); i++ {
		e := first + i*resourceEntrySize
		name, err := v.u32(e)
		if err != nil {
			return 0, false, err
		}
		if name != id {
			continue
		}
		return entryTarget(v, e)
	}
	return 0, false, ErrNoVersionResource
}

// firstEntry 返回目录中的第一项（命名项优先，与资源编译器的排序一致）。
func firstEntry(v view, dir int) (int, bool, error) {
	named, err := v.u16(dir + 12)
	if err != nil {
		return 0, false, err
	}
	ids, err := v.u16(dir + 14)
	if err != nil {
		return 0, false, err
	}
	if int(named)+int(ids) == 0 {
		return 0, false, ErrNoVersionResource
	}
	return entryTarget(v, dir+resourceDirHeaderSize)
}

func entryTarget(v view, e int) (int, bool, error) {
	off, err := v.u32(e + 4)
	if err != nil {
		return 0, false, err
	}
	isDir := off&subdirectoryFlag != 0
	target := int(off &^ subdirectoryFlag)
	if target >= len(v) {
		return 0, false, fmt.Errorf("%w: resource entry target %d beyond %d", ErrTruncated, target, len(v))
	}
	return target, isDir, nil
}
