// Package version хранит информацию о сборке, заполняемую через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// Info возвращает версию, commit и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// String возвращает строку для логов запуска.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
