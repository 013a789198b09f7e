package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
)

var (
	ErrEmptyPageSet = errors.New("empty_page_set")
	ErrNoSink       = errors.New("no_sink")
)

// Sink receives exported bytes under a filename.
type Sink = documentdomain.Sink

// Filename returns "<Label>-<number>.pdf", e.g. "DeliveryNote-DN-2501-0042.pdf".
func Filename(kind documentdomain.Kind, number string) string {
	number = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '"', 0:
			return '-'
		}
		return r
	}, strings.TrimSpace(number))
	return fmt.Sprintf("%s-%s.pdf", kind.FileLabel(), number)
}

// Download hands buf to sink under filename. The buffer is released
// whether or not the sink succeeds.
func Download(ctx context.Context, buf *bytes.Buffer, filename string, sink Sink) error {
	if buf == nil {
		return ErrEmptyPageSet
	}
	defer buf.Reset()

	if sink == nil {
		return ErrNoSink
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return sink.Save(ctx, filename, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
}
