package fs

import (
	"os"

	"golang.org/x/exp/mmap"
)

// Hooks used by OSFS. Tests swap them to simulate failures.
var (
	openMapped = mmap.Open
	readFile   = os.ReadFile
	writeFile  = os.WriteFile
	stat       = os.Stat
	readDir    = os.ReadDir
	remove     = os.Remove
	rename     = os.Rename
	createTemp = os.CreateTemp
	mkdirAll   = os.MkdirAll
)
