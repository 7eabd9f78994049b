package lakefs

import (
	"io"
	"strings"
)

// FileSystem provides the storage backend for pipeline relations.
// Raw input is read from a file system; derived relations are staged and
// written back to one. This is abstracted to allow remote filesystems
// like S3 to be supported.
type FileSystem interface {
	ListFiles(pathGlob string) ([]FileInfo, error)
	Stat(filePath string) (FileInfo, error)
	OpenReader(filePath string, startAt int64) (io.ReadCloser, error)
	OpenWriter(filePath string) (io.WriteCloser, error)
	Delete(pathPrefix string) error
	Rename(srcPrefix, dstPrefix string) error
	Join(elem ...string) string
	Init() error
}

// FileInfo provides information about a file
type FileInfo struct {
	Name string // file path
	Size int64  // file size in bytes
}

// Credentials holds the storage credentials handed to remote filesystems.
// They are passed explicitly instead of being injected into the process
// environment, so that nothing outside the filesystem can observe them.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Empty reports whether no credentials were configured.
func (c Credentials) Empty() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == ""
}

// InferFilesystem initializes the filesystem implied by the given location.
// Locations of the form "s3://bucket/..." select the S3 backend; everything
// else is treated as a local path.
func InferFilesystem(location string, creds Credentials) (FileSystem, error) {
	var fs FileSystem
	if strings.HasPrefix(location, s3Scheme) {
		fs = &S3FileSystem{creds: creds}
	} else {
		fs = &LocalFileSystem{}
	}

	if err := fs.Init(); err != nil {
		return nil, err
	}
	return fs, nil
}
