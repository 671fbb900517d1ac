// Package sqlxrepos implements the core repositories against Postgres via sqlx.
package sqlxrepos

import "strconv"

func pqPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}
