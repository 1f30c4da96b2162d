package config

import (
	"os"
	"strconv"
)

// IsDebug reports whether VRMENTOR_DEBUG is set to a true value. It is read
// before any config struct is parsed so the logger can start early.
func IsDebug() bool {
	on, err := strconv.ParseBool(os.Getenv("VRMENTOR_DEBUG"))
	return err == nil && on
}
