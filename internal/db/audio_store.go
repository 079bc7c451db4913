package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	gcs "cloud.google.com/go/storage"
	fbstorage "firebase.google.com/go/v4/storage"
)

// AudioStore persists an audio clip and returns a publicly reachable URL for
// playback on the receiving device.
type AudioStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// gcsAudioStore implements AudioStore on the project's Cloud Storage bucket.
type gcsAudioStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

// NewGCSAudioStore creates an AudioStore writing to bucketName via the
// Firebase Storage client.
func NewGCSAudioStore(client *fbstorage.Client, bucketName string) (AudioStore, error) {
	if client == nil {
		log.Fatal("Storage client is not initialized for AudioStore.")
	}
	if bucketName == "" {
		return nil, errors.New("bucketName cannot be empty for AudioStore")
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage bucket '%s': %w", bucketName, err)
	}
	return &gcsAudioStore{bucket: bucket, bucketName: bucketName}, nil
}

// Upload writes the clip under objectName and returns its download URL.
// A failed write leaves no usable object behind; callers must not create any
// document referencing the URL unless Upload returned nil error.
func (s *gcsAudioStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if objectName == "" {
		return "", errors.New("objectName cannot be empty for Upload operation")
	}
	if len(data) == 0 {
		return "", errors.New("data cannot be empty for Upload operation")
	}

	w := s.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close() // Best effort close; the object is discarded on error
		return "", fmt.Errorf("failed to write audio object '%s': %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize audio object '%s': %w", objectName, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectName), nil
}
