package output

import (
	"fmt"
	"io"
	"os"

	"github.com/chrisdamba/wooinsights/internal/cloudwriter"
	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
)

// Exporter sends reports to stdout, a local file or an S3 object.
type Exporter struct {
	stdout io.Writer
	cloud  cloudwriter.CloudWriterFactory
	logger logrus.FieldLogger
}

// NewExporter returns an Exporter. cloud may be nil when no s3:// destination
// will be used.
func NewExporter(stdout io.Writer, cloud cloudwriter.CloudWriterFactory, logger logrus.FieldLogger) *Exporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exporter{stdout: stdout, cloud: cloud, logger: logger}
}

// Export renders report in format to dest. An empty dest or "-" means stdout.
func (e *Exporter) Export(report Report, format Format, dest string) error {
	log := e.logger.WithFields(logrus.Fields{"run_id": report.RunID, "format": format, "destination": dest})

	var err error
	switch {
	case dest == "" || dest == "-":
		err = e.render(report, format, e.stdout)
	case cloudwriter.IsS3URI(dest):
		err = e.exportS3(report, format, dest)
	default:
		err = e.exportLocal(report, format, dest)
	}
	if err != nil {
		return err
	}
	if dest != "" && dest != "-" {
		log.Info("report written")
	}
	return nil
}

func (e *Exporter) exportS3(report Report, format Format, dest string) error {
	if e.cloud == nil {
		return fmt.Errorf("no cloud storage configured for %s", dest)
	}
	bucket, key, err := cloudwriter.ParseS3URI(dest)
	if err != nil {
		return err
	}
	cw, err := e.cloud.NewWriter(bucket, key, format.contentType())
	if err != nil {
		return fmt.Errorf("failed to create cloud file writer: %w", err)
	}
	if err := e.render(report, format, cw); err != nil {
		cw.Abort()
		return err
	}
	// the close error carries the upload result
	if err := cw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}

// exportLocal removes dest again when rendering fails so no partial report
// is left behind.
func (e *Exporter) exportLocal(report Report, format Format, dest string) error {
	var (
		w   io.WriteCloser
		err error
	)
	if format == FormatParquet {
		var fw source.ParquetFile
		if fw, err = local.NewLocalFileWriter(dest); err != nil {
			return fmt.Errorf("failed to create local file writer: %w", err)
		}
		w = fw
	} else if w, err = os.Create(dest); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if err := e.render(report, format, w); err != nil {
		w.Close()
		if rerr := os.Remove(dest); rerr != nil {
			e.logger.WithError(rerr).WithField("destination", dest).Warn("failed to remove partial report")
		}
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}

// render writes report to w without closing it.
func (e *Exporter) render(report Report, format Format, w io.Writer) error {
	switch format {
	case FormatParquet:
		return report.WriteParquet(NewStreamParquetFile(w))
	case FormatCSV:
		return report.WriteCSV(w)
	default:
		return report.WriteJSON(w)
	}
}

// StreamParquetFile lets the parquet writer target any sequential sink, such
// as an S3 upload buffer or stdout. It cannot be read back, and closing it
// leaves the sink open for its owner.
type StreamParquetFile struct {
	w      io.Writer
	offset int64
}

var _ source.ParquetFile = (*StreamParquetFile)(nil)

func NewStreamParquetFile(w io.Writer) *StreamParquetFile {
	return &StreamParquetFile{w: w}
}

func (s *StreamParquetFile) Open(string) (source.ParquetFile, error)   { return s, nil }
func (s *StreamParquetFile) Create(string) (source.ParquetFile, error) { return s, nil }

func (s *StreamParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.offset = offset
	case io.SeekCurrent:
		s.offset += offset
	default:
		return 0, fmt.Errorf("seek from end not supported on a stream")
	}
	return s.offset, nil
}

func (s *StreamParquetFile) Read([]byte) (int, error) {
	return 0, fmt.Errorf("read not supported on a stream")
}

func (s *StreamParquetFile) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.offset += int64(n)
	return n, err
}

func (s *StreamParquetFile) Close() error {
	return nil
}
