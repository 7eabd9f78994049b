package lakefs

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/mattetti/filebuffer"
)

// s3Writer buffers written bytes in memory and uploads the full object
// on Close. S3 objects are immutable, so there is no incremental flush.
type s3Writer struct {
	client *s3.S3
	bucket string
	key    string
	buf    *filebuffer.Buffer
}

func newS3Writer(client *s3.S3, bucket, key string) *s3Writer {
	return &s3Writer{
		client: client,
		bucket: bucket,
		key:    key,
		buf:    filebuffer.New(nil),
	}
}

func (s *s3Writer) Write(p []byte) (n int, err error) {
	n, err = s.buf.Write(p)
	return n, err
}

func (s *s3Writer) Close() error {
	s.buf.Seek(0, io.SeekStart)
	input := &s3.PutObjectInput{
		Body:   s.buf,
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}
	_, err := s.client.PutObject(input)
	return err
}

// s3Reader reads an object in fixed-size ranged chunks.
type s3Reader struct {
	client    *s3.S3
	bucket    string
	key       string
	offset    int64
	chunkSize int64
	chunk     io.ReadCloser
	totalSize int64
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func (s *s3Reader) loadNextChunk() error {
	size := min64(s.chunkSize, s.totalSize-s.offset)
	params := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", s.offset, s.offset+size-1)),
	}
	s.offset += size
	output, err := s.client.GetObject(params)
	if err != nil {
		return err
	}
	s.chunk = output.Body
	return nil
}

func (s *s3Reader) Read(b []byte) (n int, err error) {
	n, err = s.chunk.Read(b)
	if err == io.EOF && s.offset != s.totalSize {
		err = s.loadNextChunk()
	}
	return n, err
}

func (s *s3Reader) Close() error {
	return s.chunk.Close()
}
