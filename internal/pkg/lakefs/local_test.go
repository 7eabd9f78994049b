package lakefs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalImplementsFileSystem(t *testing.T) {
	backend := LocalFileSystem{}
	var fileSystem FileSystem = &backend

	assert.NotNil(t, fileSystem)
}

func TestLocalListFiles(t *testing.T) {
	tmpdir := t.TempDir()

	tmpFilePath := filepath.Join(tmpdir, "tmpfile")
	os.WriteFile(tmpFilePath, []byte("foo"), 0777)

	fs := LocalFileSystem{}

	files, err := fs.ListFiles(tmpdir)
	assert.Nil(t, err)

	assert.Len(t, files, 1)
	assert.Equal(t, tmpFilePath, files[0].Name)
}

func TestLocalListFilesWalksDirectories(t *testing.T) {
	tmpdir := t.TempDir()

	nested := filepath.Join(tmpdir, "year=2000", "producer_id=P1")
	assert.Nil(t, os.MkdirAll(nested, 0755))
	os.WriteFile(filepath.Join(nested, "part-00000.parquet"), []byte("foo"), 0644)

	fs := LocalFileSystem{}

	files, err := fs.ListFiles(tmpdir)
	assert.Nil(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, filepath.Join(nested, "part-00000.parquet"), files[0].Name)
}

func TestLocalOpenReader(t *testing.T) {
	tmpdir := t.TempDir()

	path := filepath.Join(tmpdir, "tmpfile")
	os.WriteFile(path, []byte("foo bar baz"), 0777)

	fs := LocalFileSystem{}

	// Test reader that begins at beginning of file
	reader, err := fs.OpenReader(path, 0)
	assert.Nil(t, err)

	contents, err := io.ReadAll(reader)
	assert.Nil(t, err)
	assert.Equal(t, []byte("foo bar baz"), contents)
	err = reader.Close()
	assert.Nil(t, err)

	// Test reader that begins in the middle of a file
	reader, err = fs.OpenReader(path, 4)
	assert.Nil(t, err)

	contents, err = io.ReadAll(reader)
	assert.Nil(t, err)
	assert.Equal(t, []byte("bar baz"), contents)
	err = reader.Close()
	assert.Nil(t, err)
}

func TestLocalOpenWriter(t *testing.T) {
	tmpdir := t.TempDir()

	fs := LocalFileSystem{}

	path := filepath.Join(tmpdir, "tmpfile")

	writer, err := fs.OpenWriter(path)
	assert.Nil(t, err)

	n, err := writer.Write([]byte("foo bar baz"))
	assert.Equal(t, 11, n)
	assert.Nil(t, err)
	assert.Nil(t, writer.Close())

	contents, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, []byte("foo bar baz"), contents)
}

func TestLocalStat(t *testing.T) {
	tmpdir := t.TempDir()

	path := filepath.Join(tmpdir, "tmpfile")
	os.WriteFile(path, []byte("foo"), 0777)

	fs := LocalFileSystem{}

	fInfo, err := fs.Stat(path)
	assert.Nil(t, err)

	assert.Equal(t, path, fInfo.Name)
	assert.Equal(t, int64(3), fInfo.Size)
}

func TestLocalCreateIntermediateDirectory(t *testing.T) {
	tmpdir := t.TempDir()

	path := filepath.Join(tmpdir, "additionalFolder", "tmpfile")

	fs := LocalFileSystem{}

	writer, err := fs.OpenWriter(path)
	assert.Nil(t, err)

	_, err = writer.Write([]byte("foo"))
	assert.Nil(t, err)

	assert.Nil(t, writer.Close())

	stat, err := os.Stat(filepath.Join(tmpdir, "additionalFolder"))
	assert.Nil(t, err)
	assert.True(t, stat.IsDir())
}

func TestLocalListGlob(t *testing.T) {
	tmpdir := t.TempDir()

	path := filepath.Join(tmpdir, "tmpfile")
	os.WriteFile(path, []byte("foo"), 0777)

	fs := LocalFileSystem{}

	files, err := fs.ListFiles(filepath.Join(tmpdir, "tmp*"))
	assert.Nil(t, err)
	assert.Len(t, files, 1)

	assert.Equal(t, int64(3), files[0].Size)
	assert.Equal(t, path, files[0].Name)
}

func TestLocalDelete(t *testing.T) {
	tmpdir := t.TempDir()

	nested := filepath.Join(tmpdir, "relation", "year=2000")
	assert.Nil(t, os.MkdirAll(nested, 0755))
	os.WriteFile(filepath.Join(nested, "part-00000.parquet"), []byte("foo"), 0644)

	fs := LocalFileSystem{}

	assert.Nil(t, fs.Delete(filepath.Join(tmpdir, "relation")))

	_, err := os.Stat(filepath.Join(tmpdir, "relation"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing prefix is not an error
	assert.Nil(t, fs.Delete(filepath.Join(tmpdir, "missing")))
}

func TestLocalRename(t *testing.T) {
	tmpdir := t.TempDir()

	staging := filepath.Join(tmpdir, "relation.staging-abc123")
	assert.Nil(t, os.MkdirAll(filepath.Join(staging, "year=2000"), 0755))
	os.WriteFile(filepath.Join(staging, "year=2000", "part-00000.parquet"), []byte("foo"), 0644)

	fs := LocalFileSystem{}

	dest := filepath.Join(tmpdir, "relation")
	assert.Nil(t, fs.Rename(staging, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "year=2000", "part-00000.parquet"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("foo"), contents)

	_, err = os.Stat(staging)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalJoin(t *testing.T) {
	fs := LocalFileSystem{}
	assert.Equal(t, filepath.Join("a", "b", "c"), fs.Join("a", "b", "c"))
	assert.Equal(t, filepath.Join("a", "c"), fs.Join("a", "", "c"))
}
