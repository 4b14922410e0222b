package coldstore

import (
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/certifi/gocertifi"
	raven "github.com/getsentry/raven-go"

	"github.com/ndlib/repoarchive/blobstore"
	"github.com/ndlib/repoarchive/util"
)

// Exporter copies blobs out of a blobstore.Store into an S3 bucket, one
// object per blob_id, throttled to avoid saturating the link to the
// object store while archive operations are still being served.
type Exporter struct {
	Bucket string
	Prefix string

	svc  *s3.S3
	rate *util.RateCounter
}

// NewExporter builds an Exporter against bucket, rate-limiting uploads to
// bytesPerSecond. It configures the AWS session with Mozilla's CA bundle
// via gocertifi, the same defense bendo's own S3 store relies on the
// environment's default cert pool for, made explicit here since cold
// storage targets are often reached from minimal container images with
// no system trust store.
func NewExporter(bucket, prefix string, awsSession *session.Session, bytesPerSecond float64) (*Exporter, error) {
	pool, err := gocertifi.CACerts()
	if err != nil {
		return nil, fmt.Errorf("coldstore: load CA certs: %w", err)
	}
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		},
	}
	cfg := aws.NewConfig().WithHTTPClient(client)
	return &Exporter{
		Bucket: bucket,
		Prefix: prefix,
		svc:    s3.New(awsSession, cfg),
		rate:   util.NewRateCounter(bytesPerSecond),
	}, nil
}

// Stop releases the exporter's background rate-refill goroutine. Call it
// once the exporter is no longer needed.
func (e *Exporter) Stop() {
	e.rate.Stop()
}

// ExportBlob copies one blob's content to s3://Bucket/Prefix<blob_id>,
// throttled by the exporter's rate counter.
func (e *Exporter) ExportBlob(be blobstore.Backend, blobID int64, store *blobstore.Store) error {
	handle, err := store.Open(be, blobID)
	if err != nil {
		return err
	}
	defer handle.Close()

	key := e.Prefix + strconv.FormatInt(blobID, 10)
	_, err = e.svc.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(e.Bucket),
		Key:    aws.String(key),
		Body:   &throttledReader{r: handle, rate: e.rate},
	})
	if err != nil {
		log.Println("coldstore export:", key, err)
		raven.CaptureError(err, map[string]string{"Bucket": e.Bucket, "Key": key})
	}
	return err
}

// throttledReader wraps a blob read handle in a RateCounter so
// PutObject's own streaming upload is paced; S3's SDK requires an
// io.ReadSeeker, which Seek simply forwards untouched since throttling
// only needs to govern forward reads.
type throttledReader struct {
	r    io.ReadSeeker
	rate *util.RateCounter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	return t.rate.Wrap(t.r).Read(p)
}

func (t *throttledReader) Seek(offset int64, whence int) (int64, error) {
	return t.r.Seek(offset, whence)
}
