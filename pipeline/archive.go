/*
 * archive.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package pipeline

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

//ArchiveDir packs a finished iteration folder into dir.tar.zst and removes
//the folder. A long run leaves hundreds of rendered sweeps behind; the
//archives keep them inspectable without the disk cost.
func ArchiveDir(dir string) error {
	f, err := os.Create(dir + ".tar.zst")
	if err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	defer f.Close()
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	tw := tar.NewWriter(zw)
	root := filepath.Dir(dir)
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("pipeline: archiving %s: %v", dir, err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	return os.RemoveAll(dir)
}

//Unarchive restores an iteration archive under root, the run directory.
func Unarchive(name, root string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	defer zr.Close()
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pipeline: %s: %v", name, err)
		}
		rel := filepath.FromSlash(hdr.Name)
		if filepath.IsAbs(rel) || rel != filepath.Clean(rel) || rel == ".." ||
			len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
			return fmt.Errorf("pipeline: %s holds the unsafe path %q", name, hdr.Name)
		}
		path := filepath.Join(root, rel)
		if hdr.FileInfo().IsDir() {
			if err := os.MkdirAll(path, hdr.FileInfo().Mode()); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		dst, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, hdr.FileInfo().Mode())
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, tr); err != nil {
			dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
	}
}
