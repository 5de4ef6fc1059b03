package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// StorageDir is the directory holding all table backing files
	StorageDir string
	// TableExtension is the file extension for table backing files
	TableExtension string
	// OverwriteFiles controls whether existing files should be overwritten
	OverwriteFiles bool
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("StorageDir", "./tables/")
	viper.SetDefault("TableExtension", ".csv")
	viper.SetDefault("OverwriteFiles", false)

	// Get values from viper
	StorageDir = viper.GetString("StorageDir")
	TableExtension = viper.GetString("TableExtension")
	OverwriteFiles = viper.GetBool("OverwriteFiles")
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// SetStorageDir sets the storage directory
func SetStorageDir(dir string) {
	StorageDir = dir
}
