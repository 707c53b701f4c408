package domain

import "strings"

// OS identifies a client operating system that a link may target with its
// own destination URL. The set is closed: every key stored in a link's
// OSURLs map must be one of these six values.
type OS string

const (
	OSWindows  OS = "windows"
	OSLinux    OS = "linux"
	OSMacOS    OS = "macos"
	OSAndroid  OS = "android"
	OSIOS      OS = "ios"
	OSChromeOS OS = "chromeos"
)

// AllOS lists every OS in a fixed order. Destination selection walks this
// slice, so the order decides which override wins when a user agent
// matches more than one signature (Android agents also carry "Linux",
// iOS agents carry "Mac OS X", ChromeOS agents carry "X11").
var AllOS = []OS{OSWindows, OSLinux, OSMacOS, OSAndroid, OSIOS, OSChromeOS}

// osSignatures maps each OS to the user-agent substrings that identify it.
var osSignatures = map[OS][]string{
	OSWindows:  {"Windows"},
	OSLinux:    {"Linux", "X11"},
	OSMacOS:    {"Macintosh", "Mac OS X"},
	OSAndroid:  {"Android"},
	OSIOS:      {"iPhone", "iPad", "iPod"},
	OSChromeOS: {"CrOS"},
}

// Valid reports whether os is one of the six known values.
func (os OS) Valid() bool {
	_, ok := osSignatures[os]
	return ok
}

// MatchesUserAgent reports whether the user-agent string carries one of
// this OS's signatures. Matching is an independent substring check per OS,
// not a prioritized cascade.
func (os OS) MatchesUserAgent(userAgent string) bool {
	for _, sig := range osSignatures[os] {
		if strings.Contains(userAgent, sig) {
			return true
		}
	}
	return false
}
