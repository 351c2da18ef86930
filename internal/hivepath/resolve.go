// Package hivepath maps symbolic registry roots to the hive files of an
// offline Windows image.
package hivepath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joshuapare/regapply/pkg/types"
)

// Resolved identifies the hive file backing a registry path inside one
// offline image, and where the remaining key lives within it.
type Resolved struct {
	// File is the hive file path under the image mount root.
	File string

	// Key is the key path relative to the hive root ("" is the hive root).
	Key string

	// Root is the canonical display form of the resolved root,
	// e.g. `HKEY_LOCAL_MACHINE\SOFTWARE`.
	Root string

	// LoadPoint is the temporary namespace name the hive is attached
	// under while loaded. It is deterministic per hive so two concurrent
	// loads of the same hive would collide instead of silently diverging.
	LoadPoint string
}

const loadPointPrefix = "regapply_"

// machineHives are the HKEY_LOCAL_MACHINE subtrees that exist as files
// under Windows\System32\config in an offline image.
var machineHives = map[string]string{
	"SOFTWARE":   "SOFTWARE",
	"SYSTEM":     "SYSTEM",
	"SAM":        "SAM",
	"SECURITY":   "SECURITY",
	"COMPONENTS": "COMPONENTS",
	"DRIVERS":    "DRIVERS",
}

// rootAliases normalizes the short root names regedit accepts.
var rootAliases = map[string]string{
	"HKLM": "HKEY_LOCAL_MACHINE",
	"HKU":  "HKEY_USERS",
	"HKCU": "HKEY_CURRENT_USER",
	"HKCR": "HKEY_CLASSES_ROOT",
	"HKCC": "HKEY_CURRENT_CONFIG",
	"HKDU": "HKEY_DEFAULT_USER",
}

// Resolve maps a symbolic hive root plus key path to the concrete hive file
// of the offline image mounted at mountRoot.
//
// Supported roots: HKEY_LOCAL_MACHINE (first key segment selects the hive
// file), HKEY_USERS\.DEFAULT, and HKEY_DEFAULT_USER (the default user
// profile, Users\Default\NTUSER.DAT). Roots that only exist on a running
// system (HKEY_CURRENT_USER, HKEY_CLASSES_ROOT, HKEY_CURRENT_CONFIG) are
// rejected: an unbooted image has no logged-on user and no derived class
// view. Unrecognized roots are rejected.
func Resolve(mountRoot, hive, key string) (Resolved, error) {
	if hive == "" {
		return Resolved{}, types.ErrMissingHive
	}

	root := strings.ToUpper(strings.TrimSpace(hive))
	if canonical, ok := rootAliases[root]; ok {
		root = canonical
	}

	switch root {
	case "HKEY_LOCAL_MACHINE":
		first, rest, _ := strings.Cut(key, `\`)
		name, ok := machineHives[strings.ToUpper(first)]
		if !ok {
			if first == "" {
				return Resolved{}, types.ValidationError(
					"HKEY_LOCAL_MACHINE needs a hive subtree (SOFTWARE, SYSTEM, ...)", types.ErrUnknownRoot)
			}
			return Resolved{}, types.ValidationError(
				fmt.Sprintf("no offline hive file for HKEY_LOCAL_MACHINE\\%s", first), types.ErrUnknownRoot)
		}
		return Resolved{
			File:      filepath.Join(mountRoot, "Windows", "System32", "config", name),
			Key:       rest,
			Root:      `HKEY_LOCAL_MACHINE\` + name,
			LoadPoint: loadPointPrefix + name,
		}, nil

	case "HKEY_USERS":
		first, rest, _ := strings.Cut(key, `\`)
		if !strings.EqualFold(first, ".DEFAULT") {
			return Resolved{}, types.ValidationError(
				fmt.Sprintf("only HKEY_USERS\\.DEFAULT is available offline, got %q", first), types.ErrUnsupportedRoot)
		}
		return Resolved{
			File:      filepath.Join(mountRoot, "Windows", "System32", "config", "DEFAULT"),
			Key:       rest,
			Root:      `HKEY_USERS\.DEFAULT`,
			LoadPoint: loadPointPrefix + "DEFAULT",
		}, nil

	case "HKEY_DEFAULT_USER":
		return Resolved{
			File:      filepath.Join(mountRoot, "Users", "Default", "NTUSER.DAT"),
			Key:       key,
			Root:      "HKEY_DEFAULT_USER",
			LoadPoint: loadPointPrefix + "NTUSER",
		}, nil

	case "HKEY_CURRENT_USER", "HKEY_CLASSES_ROOT", "HKEY_CURRENT_CONFIG":
		return Resolved{}, types.ValidationError(
			fmt.Sprintf("%s does not exist in an offline image", root), types.ErrUnsupportedRoot)

	default:
		return Resolved{}, types.ValidationError(
			fmt.Sprintf("unrecognized registry root %q", hive), types.ErrUnknownRoot)
	}
}
