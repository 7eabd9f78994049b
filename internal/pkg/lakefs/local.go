package lakefs

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// LocalFileSystem serves files on the local disk.
type LocalFileSystem struct{}

func walkDir(dir string) []FileInfo {
	files := make([]FileInfo, 0)
	filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			log.Error(err)
			return err
		}
		if f.IsDir() {
			return nil
		}
		files = append(files, FileInfo{
			Name: path,
			Size: f.Size(),
		})
		return nil
	})

	return files
}

func (l *LocalFileSystem) ListFiles(pathGlob string) ([]FileInfo, error) {
	globbedFiles, err := filepath.Glob(pathGlob)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0)
	for _, fileName := range globbedFiles {
		fInfo, err := os.Stat(fileName)
		if err != nil {
			log.Error(err)
			continue
		}
		if !fInfo.IsDir() {
			files = append(files, FileInfo{
				Name: fileName,
				Size: fInfo.Size(),
			})
		} else {
			files = append(files, walkDir(fileName)...)
		}
	}

	return files, err
}

func (l *LocalFileSystem) OpenReader(filePath string, startAt int64) (io.ReadCloser, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0600)
	if err != nil {
		return nil, err
	}
	_, err = file.Seek(startAt, io.SeekStart)
	return file, err
}

func (l *LocalFileSystem) OpenWriter(filePath string) (io.WriteCloser, error) {
	// Create writer directory if necessary
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}

func (l *LocalFileSystem) Stat(filePath string) (FileInfo, error) {
	fInfo, err := os.Stat(filePath)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name: filePath,
		Size: fInfo.Size(),
	}, nil
}

// Delete removes the file or directory tree rooted at pathPrefix.
func (l *LocalFileSystem) Delete(pathPrefix string) error {
	return os.RemoveAll(pathPrefix)
}

// Rename moves the tree at srcPrefix to dstPrefix. The destination must
// not already exist; overwrite semantics are the caller's concern.
func (l *LocalFileSystem) Rename(srcPrefix, dstPrefix string) error {
	if err := os.MkdirAll(filepath.Dir(dstPrefix), 0755); err != nil {
		return err
	}
	return os.Rename(srcPrefix, dstPrefix)
}

func (l *LocalFileSystem) Init() error {
	return nil
}

func (l *LocalFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}
