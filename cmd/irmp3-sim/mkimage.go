package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rabidaudio/irmp3/catalog"
	"github.com/rabidaudio/irmp3/storage"
	"github.com/sirupsen/logrus"
)

// FAT32 needs at least 65525 clusters; leave room for the partition table
// and directory entries on top of the track data.
const minImageSize = 64 << 20

// mkimage builds a FAT32 image at image holding every track in dir.
func mkimage(image, dir string, log logrus.FieldLogger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	var total int64
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), catalog.Extension) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		names = append(names, e.Name())
		total += info.Size()
	}
	if len(names) == 0 {
		return fmt.Errorf("no %s files in %v", catalog.Extension, dir)
	}
	if len(names) > catalog.MaxTracks {
		log.WithField("tracks", len(names)).Warnf("only the first %d will play", catalog.MaxTracks)
	}

	size := total + total/8 + minImageSize
	size -= size % storage.SectorSize
	vol, err := storage.Create(image, size, "IRMP3")
	if err != nil {
		return err
	}
	defer vol.Close()

	for _, name := range names {
		if err := copyTrack(vol, filepath.Join(dir, name), "/"+name); err != nil {
			return err
		}
		log.WithField("track", name).Info("copied")
	}
	log.WithFields(logrus.Fields{"image": image, "tracks": len(names), "bytes": size}).Info("image written")
	return nil
}

func copyTrack(vol *storage.Volume, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = vol.WriteFile(dst, f)
	return err
}
