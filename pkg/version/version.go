// Package version reports which build a binary came from. Release builds fill
// in the variables below with the linker:
//
//	-ldflags "-X github.com/NicolasHaas/radiant/pkg/version.tag=v1.0.0
//	  -X github.com/NicolasHaas/radiant/pkg/version.commit=abc1234
//	  -X github.com/NicolasHaas/radiant/pkg/version.date=2026-01-01"
package version

var (
	tag    string
	commit string
	date   string
)

// String is the shortest name for this build: the tag, else the commit,
// else "dev".
func String() string {
	switch {
	case tag != "":
		return tag
	case commit != "":
		return commit
	}
	return "dev"
}

// Full is String plus whatever commit and build date are known.
func Full() string {
	s := String()
	if tag != "" && commit != "" {
		s += " (" + commit + ")"
	}
	if date != "" && s != "dev" {
		s += " built " + date
	}
	return s
}

// UserAgent identifies the client to the backend, e.g. "radiant/v1.2.0".
func UserAgent() string {
	return "radiant/" + String()
}
