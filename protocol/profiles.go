package protocol

import "strings"

// profiles lists every supported MCU, raw chip names first, then board names.
var profiles = []Profile{
	{Name: "at90usb162", CodeSize: 15872, BlockSize: 128},
	{Name: "atmega32u4", CodeSize: 32256, BlockSize: 128},
	{Name: "at90usb646", CodeSize: 64512, BlockSize: 256},
	{Name: "at90usb1286", CodeSize: 130048, BlockSize: 256},
	{Name: "mkl26z64", CodeSize: 63488, BlockSize: 512},
	{Name: "mk20dx128", CodeSize: 131072, BlockSize: 1024},
	{Name: "mk20dx256", CodeSize: 262144, BlockSize: 1024},
	{Name: "mk66fx1m0", CodeSize: 1048576, BlockSize: 1024},
	{Name: "mk64fx512", CodeSize: 524288, BlockSize: 1024},
	{Name: "imxrt1062", CodeSize: 2031616, BlockSize: 1024},

	{Name: "TEENSY2", CodeSize: 32256, BlockSize: 128},
	{Name: "TEENSY2PP", CodeSize: 130048, BlockSize: 256},
	{Name: "TEENSYLC", CodeSize: 63488, BlockSize: 512},
	{Name: "TEENSY30", CodeSize: 131072, BlockSize: 1024},
	{Name: "TEENSY31", CodeSize: 262144, BlockSize: 1024},
	{Name: "TEENSY32", CodeSize: 262144, BlockSize: 1024},
	{Name: "TEENSY35", CodeSize: 524288, BlockSize: 1024},
	{Name: "TEENSY36", CodeSize: 1048576, BlockSize: 1024},
	{Name: "TEENSY40", CodeSize: 2031616, BlockSize: 1024},
	{Name: "TEENSY41", CodeSize: 8126464, BlockSize: 1024},
	{Name: "TEENSY_MICROMOD", CodeSize: 16515072, BlockSize: 1024},
}

// Profiles returns a copy of the built-in profile table.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// LookupProfile finds a profile by name, ignoring case.
// Returns *UnknownMCUError when no profile matches.
func LookupProfile(name string) (Profile, error) {
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, &UnknownMCUError{Name: name}
}
