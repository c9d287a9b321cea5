// Package workers runs the client's background jobs.
//
// It defines the Worker interface, the periodic UploadWorker that pushes
// pending local writes to the remote, and a Workers aggregate that starts and
// stops several workers together.
package workers

import "context"

// Worker is a background job. Run starts it and returns immediately; the job
// ends when ctx is cancelled or Stop is called. Stop blocks until the job has
// exited and is a no-op for a job that is not running.
type Worker interface {
	Run(ctx context.Context)
	Stop()
}

// Uploader pushes pending local writes to the remote.
type Uploader interface {
	Upload(ctx context.Context) error
}
