// Package upload names files uploaded for challenges, achievements and
// user avatars.
package upload

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kind is the storage subdirectory an uploaded file belongs to.
type Kind string

const (
	KindChallenges   Kind = "challenges"
	KindAchievements Kind = "achievements"
	KindUsers        Kind = "users"
)

// Root is the top-level directory of every generated path.
const Root = "images"

var newBasename = uuid.NewString

// GenerateFilename returns a random UUIDv4 basename carrying the extension
// of name. Only the final extension is kept ("a.b.png" gives ".png") and a
// name without one yields a bare UUID.
func GenerateFilename(name string) string {
	return newBasename() + Ext(name)
}

// Ext returns the extension of the last element of name, including the
// dot. Leading dots do not start an extension, so ".bashrc" has none.
func Ext(name string) string {
	base := strings.TrimLeft(path.Base(filepath.ToSlash(name)), ".")
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[i:]
	}
	return ""
}

// Path returns images/<kind>/<generated filename> for name. The kind is not
// checked against the known ones, so any plain directory name is used as
// given. The kind is cleaned as a path rooted at Root: "." and ".."
// segments and repeated slashes are resolved and can never lead outside
// Root, so Kind("../x") yields images/x/<filename>.
func Path(kind Kind, name string) string {
	return path.Join(Root, path.Clean("/"+string(kind)), GenerateFilename(name))
}
