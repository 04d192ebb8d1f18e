package backup

import (
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/consensuslabs/dbupgrade/internal/config"
)

// uploader is the subset of s3manager.Uploader used by the archiver
type uploader interface {
	Upload(input *s3manager.UploadInput, options ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Archiver decorates a backup Service with off-host retention: every
// snapshot is uploaded to S3 right after it is written. Restore and Discard
// operate on the local file only, so the archived copy survives a successful
// run and remains available for manual recovery.
type S3Archiver struct {
	inner    Service
	uploader uploader
	bucket   string
	prefix   string
	logger   Logger
}

// NewS3Archiver creates an archiving backup service from the S3 configuration
func NewS3Archiver(inner Service, cfg *config.S3Config, logger Logger) (*S3Archiver, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %v", err)
	}

	return &S3Archiver{
		inner:    inner,
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		logger:   logger,
	}, nil
}

// Save delegates to the wrapped service and uploads the resulting snapshot
func (s *S3Archiver) Save(tempDir string) (*Snapshot, error) {
	snap, err := s.inner.Save(tempDir)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(snap.Path)
	if err != nil {
		s.discardLocal(snap)
		return nil, fmt.Errorf("failed to open snapshot for archiving: %v", err)
	}
	defer file.Close()

	key := path.Join(s.prefix, "snapshot-"+snap.ID+".sql")
	if _, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		s.discardLocal(snap)
		return nil, fmt.Errorf("failed to archive snapshot to S3: %v", err)
	}

	s.logger.LogInfo("Snapshot archived to S3", map[string]interface{}{
		"snapshot": snap.ID,
		"bucket":   s.bucket,
		"key":      key,
	})
	return snap, nil
}

// discardLocal cleans up a snapshot whose archiving failed; the batch is
// aborted with the archive error either way.
func (s *S3Archiver) discardLocal(snap *Snapshot) {
	if err := s.inner.Discard(snap); err != nil {
		s.logger.LogWarn("Failed to remove unarchived snapshot", map[string]interface{}{
			"snapshot": snap.ID,
			"error":    err.Error(),
		})
	}
}

// Restore delegates to the wrapped service
func (s *S3Archiver) Restore(snap *Snapshot) error {
	return s.inner.Restore(snap)
}

// Discard delegates to the wrapped service; the archived copy is kept
func (s *S3Archiver) Discard(snap *Snapshot) error {
	return s.inner.Discard(snap)
}
