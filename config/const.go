package config

import "strings"

// AppVersion is set at build time with -ldflags "-X dng-desqueeze/config.AppVersion=...".
var AppVersion = "dev"

// AppName is the name of the application.
const AppName = "DNG De-squeeze"

// AppID is the fyne application id, also used for the preferences store.
const AppID = "dev.desqueeze.dng"

// LogWinSubDir is the sub directory for the log files on windows.
var LogWinSubDir = "DNGDesqueeze"

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(strings.ReplaceAll(AppName, " ", "-"))

// LogExt is the extension for the log files.
var LogExt = ".log"

// Defaults mirror the layout the tool ships with: exiftool unpacked under Lib/ and the
// footage dropped into TEST_IMAGE/.
const (
	DefaultExiftoolPath = "Lib/exiftool-13.34_64/exiftool(-k).exe"
	DefaultInputDir     = "TEST_IMAGE"
	DefaultOutputDir    = "TEST_IMAGE/OUTPUT"
	DefaultExtension    = ".dng"
	DefaultSuffix       = "_stretched"
	DefaultLensTag      = "LensModel"
	DefaultLensLabel    = "Lens Model"

	// DefaultAnamorphicLens is the only lens the tool de-squeezes out of the box.
	DefaultAnamorphicLens = "SIRUI Z 20mm f/1.8S"
	// DefaultScale is written to DefaultScale (horizontal vertical) for that lens.
	DefaultScale = "1.33 1.0"
)

// Reader backends for the lens lookup.
const (
	ReaderExec     = "exec"
	ReaderStayOpen = "stay_open"
)
