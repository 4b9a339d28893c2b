package db

import (
	"net/url"
	"time"
)

const busyTimeoutPragma = "busy_timeout(30000)"

// DSN builds the modernc SQLite connection string for a database file.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", busyTimeoutPragma)
	return "file:" + path + "?" + q.Encode()
}

// MigrateURL builds the golang-migrate database URL for a database file.
func MigrateURL(path string) string {
	q := url.Values{}
	q.Add("x-no-tx-wrap", "false")
	return "sqlite://" + path + "?" + q.Encode()
}

// UnixTime converts a stored unix timestamp to time.Time; zero stays zero.
func UnixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
