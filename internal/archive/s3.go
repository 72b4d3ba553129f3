package archive

import (
	"bytes"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/manpen/stride/internal/config"
)

// s3Store is the slow, durable half of the archive (§4.7): the object
// storage backing the central repository's cache of best-known scores
// and reported error kinds; canonical solution texts are not stored.
// Adapted from the teacher's storage.s3Store;
// the session/credentials/retry setup is unchanged, only the payload
// (a JSON record keyed by idigest rather than a content-addressed
// block) differs.
type s3Store struct {
	client *s3.S3
	bucket string
}

func newS3Store(c *config.C) (*s3Store, error) {
	const maxRetries = 16
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(c.S3Region),
		Credentials: credentials.NewSharedCredentials("", c.S3Profile),
		MaxRetries:  aws.Int(maxRetries),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &s3Store{
		client: s3.New(sess),
		bucket: c.S3Bucket,
	}, nil
}

func (s *s3Store) get(idigest string) (*record, error) {
	output, err := s.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(sanitize(idigest)),
	})
	if err != nil {
		if rfErr, ok := err.(awserr.RequestFailure); ok && rfErr.StatusCode() == http.StatusNotFound {
			return nil, errNotFound
		}
		return nil, err
	}
	defer output.Body.Close()
	b, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, err
	}
	return unmarshalRecord(b)
}

func (s *s3Store) put(idigest string, r *record) error {
	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(sanitize(idigest)),
		Body:   bytes.NewReader(r.marshal()),
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
