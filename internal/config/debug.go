package config

import "os"

func IsDebug() bool {
	return os.Getenv("SHOPCLERK_DEBUG") == "1"
}
