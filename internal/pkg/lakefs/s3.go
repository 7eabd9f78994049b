package lakefs

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
)

const s3Scheme = "s3://"

// S3FileSystem serves files backed by objects in an S3 bucket.
// Locations are addressed as "s3://bucket/key".
type S3FileSystem struct {
	client *s3.S3
	creds  Credentials
}

// parseS3Path splits an "s3://bucket/key" location into bucket and key.
func parseS3Path(filePath string) (bucket string, key string, err error) {
	if !strings.HasPrefix(filePath, s3Scheme) {
		return "", "", fmt.Errorf("not an s3 location: %s", filePath)
	}
	trimmed := strings.TrimPrefix(filePath, s3Scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("s3 location has no bucket: %s", filePath)
	}
	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}
	return bucket, key, nil
}

// globPrefix returns the literal leading portion of a glob pattern,
// i.e. everything before the first metacharacter.
func globPrefix(pattern string) string {
	if idx := strings.IndexAny(pattern, "*?["); idx != -1 {
		return pattern[:idx]
	}
	return pattern
}

func (s *S3FileSystem) ListFiles(pathGlob string) ([]FileInfo, error) {
	bucket, keyGlob, err := parseS3Path(pathGlob)
	if err != nil {
		return nil, err
	}

	s3Files := make([]FileInfo, 0)
	hasMeta := keyGlob != globPrefix(keyGlob)

	params := &s3.ListObjectsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(globPrefix(keyGlob)),
	}
	err = s.client.ListObjectsPages(params,
		func(page *s3.ListObjectsOutput, _ bool) bool {
			for _, object := range page.Contents {
				if hasMeta {
					matched, matchErr := path.Match(keyGlob, *object.Key)
					if matchErr != nil || !matched {
						continue
					}
				}
				s3Files = append(s3Files, FileInfo{
					Name: s3Scheme + bucket + "/" + *object.Key,
					Size: *object.Size,
				})
			}
			return true
		})

	return s3Files, err
}

func (s *S3FileSystem) Stat(filePath string) (FileInfo, error) {
	bucket, key, err := parseS3Path(filePath)
	if err != nil {
		return FileInfo{}, err
	}

	params := &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	result, err := s.client.HeadObject(params)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Name: filePath,
		Size: *result.ContentLength,
	}, nil
}

func (s *S3FileSystem) OpenReader(filePath string, startAt int64) (io.ReadCloser, error) {
	fInfo, err := s.Stat(filePath)
	if err != nil {
		return nil, err
	}

	bucket, key, err := parseS3Path(filePath)
	if err != nil {
		return nil, err
	}

	reader := &s3Reader{
		client:    s.client,
		bucket:    bucket,
		key:       key,
		offset:    startAt,
		chunkSize: 20 * 1024 * 1024, // 20 Mb chunk size
		totalSize: fInfo.Size,
	}
	err = reader.loadNextChunk()
	return reader, err
}

func (s *S3FileSystem) OpenWriter(filePath string) (io.WriteCloser, error) {
	bucket, key, err := parseS3Path(filePath)
	if err != nil {
		return nil, err
	}

	writer := newS3Writer(s.client, bucket, key)
	return writer, nil
}

// Delete removes every object under pathPrefix.
func (s *S3FileSystem) Delete(pathPrefix string) error {
	files, err := s.ListFiles(pathPrefix)
	if err != nil {
		return err
	}

	for _, file := range files {
		bucket, key, err := parseS3Path(file.Name)
		if err != nil {
			return err
		}
		params := &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}
		if _, err := s.client.DeleteObject(params); err != nil {
			return err
		}
	}
	return nil
}

// Rename moves every object under srcPrefix to the same suffix under
// dstPrefix via server-side copy, then deletes the originals.
func (s *S3FileSystem) Rename(srcPrefix, dstPrefix string) error {
	srcBucket, srcKey, err := parseS3Path(srcPrefix)
	if err != nil {
		return err
	}
	dstBucket, dstKey, err := parseS3Path(dstPrefix)
	if err != nil {
		return err
	}

	files, err := s.ListFiles(srcPrefix)
	if err != nil {
		return err
	}

	for _, file := range files {
		_, key, err := parseS3Path(file.Name)
		if err != nil {
			return err
		}
		suffix := strings.TrimPrefix(key, srcKey)
		params := &s3.CopyObjectInput{
			Bucket:     aws.String(dstBucket),
			Key:        aws.String(dstKey + suffix),
			CopySource: aws.String(srcBucket + "/" + key),
		}
		if _, err := s.client.CopyObject(params); err != nil {
			return err
		}
	}

	return s.Delete(srcPrefix)
}

// Init establishes the S3 session. Configured credentials are passed to
// the session explicitly; with none configured the SDK's default chain is
// used. Credentials that cannot be resolved fail here, before any read.
func (s *S3FileSystem) Init() error {
	config := aws.NewConfig()
	if !s.creds.Empty() {
		config = config.WithCredentials(
			credentials.NewStaticCredentials(s.creds.AccessKeyID, s.creds.SecretAccessKey, ""))
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *config,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return err
	}

	if _, err := sess.Config.Credentials.Get(); err != nil {
		return fmt.Errorf("unable to resolve S3 credentials: %w", err)
	}

	s.client = s3.New(sess)
	log.Debug("Initialized S3 filesystem")
	return nil
}

func (s *S3FileSystem) Join(elem ...string) string {
	trimmed := make([]string, len(elem))
	for i, e := range elem {
		trimmed[i] = strings.TrimPrefix(e, s3Scheme)
	}
	return s3Scheme + path.Join(trimmed...)
}
