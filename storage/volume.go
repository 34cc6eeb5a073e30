// Package storage reads tracks from a FAT32 volume on a block device or disk
// image.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/partition/mbr"
)

const (
	SectorSize = 512
	// PartitionStart is the first sector of the partition Create makes.
	PartitionStart = 2048
)

// ErrNoFilesystem means the device has no readable filesystem on the
// requested partition.
var ErrNoFilesystem = errors.New("storage: no filesystem")

// File is an open track.
type File = io.ReadSeekCloser

// Volume is a mounted filesystem. It is not safe for concurrent use; the
// player serialises access with its storage lock.
type Volume struct {
	Path string

	dsk *disk.Disk
	fs  filesystem.FileSystem
}

// Open mounts partition of the image or block device at path. Partition 0
// means the whole device holds the filesystem with no partition table.
func Open(path string, partition int) (*Volume, error) {
	dsk, err := diskfs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %v: %w", path, err)
	}
	fs, err := dsk.GetFilesystem(partition)
	if err != nil {
		dsk.Close()
		return nil, fmt.Errorf("%w: %v partition %d: %v", ErrNoFilesystem, path, partition, err)
	}
	return &Volume{Path: path, dsk: dsk, fs: fs}, nil
}

// Create makes a new image file at path holding one FAT32 partition.
func Create(path string, size int64, label string) (*Volume, error) {
	if size/SectorSize <= PartitionStart {
		return nil, fmt.Errorf("storage: image size %d too small", size)
	}
	dsk, err := diskfs.Create(path, size, diskfs.Raw, diskfs.SectorSizeDefault)
	if err != nil {
		return nil, fmt.Errorf("storage: create %v: %w", path, err)
	}

	// create an MBR with one partition
	table := &mbr.Table{
		LogicalSectorSize:  SectorSize,
		PhysicalSectorSize: SectorSize,
		Partitions: []*mbr.Partition{
			{
				Bootable: false,
				Type:     mbr.Fat32LBA,
				Start:    PartitionStart,
				Size:     uint32(size/SectorSize - PartitionStart),
			},
		},
	}
	if err := dsk.Partition(table); err != nil {
		dsk.Close()
		os.Remove(path)
		return nil, fmt.Errorf("storage: partition %v: %w", path, err)
	}
	fs, err := dsk.CreateFilesystem(disk.FilesystemSpec{
		Partition:   1,
		FSType:      filesystem.TypeFat32,
		VolumeLabel: label,
	})
	if err != nil {
		dsk.Close()
		os.Remove(path)
		return nil, fmt.Errorf("storage: format %v: %w", path, err)
	}
	return &Volume{Path: path, dsk: dsk, fs: fs}, nil
}

// ReadDir lists a directory. Paths are absolute ("/" is the root).
func (v *Volume) ReadDir(dir string) ([]os.FileInfo, error) {
	return v.fs.ReadDir(dir)
}

// Open opens a file for reading.
func (v *Volume) Open(name string) (File, error) {
	f, err := v.fs.OpenFile(name, os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("storage: open %v: %w", name, err)
	}
	return f, nil
}

// WriteFile creates name and copies r into it.
func (v *Volume) WriteFile(name string, r io.Reader) (n int64, err error) {
	f, err := v.fs.OpenFile(name, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return 0, fmt.Errorf("storage: create %v: %w", name, err)
	}
	defer func() {
		if c := f.Close(); err == nil {
			err = c
		}
	}()
	return io.Copy(f, r)
}

func (v *Volume) Label() string {
	return v.fs.Label()
}

func (v *Volume) Close() error {
	return v.dsk.Close()
}
