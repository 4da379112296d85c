package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/russross/meddler"
)

// UTCTimeFormat is the fixed-width form timestamps are stored in. Being
// fixed-width, string comparison orders the same way the instants do.
const UTCTimeFormat = "2006-01-02T15:04:05Z"

func init() {
	meddler.Register("utctime", UTCTimeMeddler{})
}

// UTCTimeMeddler stores a time.Time as a UTC text column in UTCTimeFormat.
type UTCTimeMeddler struct{}

func (UTCTimeMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(sql.NullString), nil
}

func (UTCTimeMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*time.Time)
	if !ok {
		return fmt.Errorf("expected *time.Time, got %T", fieldAddr)
	}

	if !ns.Valid || ns.String == "" {
		*ptr = time.Time{}
		return nil
	}

	t, err := time.Parse(UTCTimeFormat, ns.String)
	if err != nil {
		return fmt.Errorf("invalid stored timestamp %q: %w", ns.String, err)
	}

	*ptr = t
	return nil
}

func (UTCTimeMeddler) PreWrite(field interface{}) (saveValue interface{}, err error) {
	t, ok := field.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected time.Time, got %T", field)
	}

	return t.UTC().Format(UTCTimeFormat), nil
}
