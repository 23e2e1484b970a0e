//go:build !release

package log

import (
	"fmt"
	"log"
)

// Print calls the standard log.Print()
func Print(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
}

// Printf calls the standard log.Printf()
func Printf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
}

// Println calls the standard log.Println()
func Println(v ...interface{}) {
	log.Output(2, fmt.Sprintln(v...))
}

// Fatal calls the standard log.Fatal()
func Fatal(v ...interface{}) {
	log.Fatal(v...)
}

// Fatalf calls the standard log.Fatalf()
func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

// Debug prints with a [DEBUG] prefix. Dropped in release builds.
func Debug(v ...interface{}) {
	log.Output(2, "[DEBUG] "+fmt.Sprint(v...))
}

// Debugf prints with a [DEBUG] prefix. Dropped in release builds.
func Debugf(format string, v ...interface{}) {
	log.Output(2, "[DEBUG] "+fmt.Sprintf(format, v...))
}
