package source

import "fmt"

// FileTable maps file ids carried by spans to the paths the front end
// recorded for them. Id 0 is reserved for synthesized code.
type FileTable struct {
	Paths []string `msgpack:"paths"`
}

// Add registers path and returns its id. Re-adding a path returns the
// existing id.
func (t *FileTable) Add(path string) FileID {
	for i, p := range t.Paths {
		if p == path {
			return FileID(i + 1)
		}
	}
	t.Paths = append(t.Paths, path)
	return FileID(len(t.Paths))
}

// Path returns the recorded path for id, or "<synthesized>" for id 0 and
// unknown ids.
func (t *FileTable) Path(id FileID) string {
	if t == nil || id == 0 || int(id) > len(t.Paths) {
		return "<synthesized>"
	}
	return t.Paths[id-1]
}

// Format renders a span as "path:start-end".
func (t *FileTable) Format(sp Span) string {
	return fmt.Sprintf("%s:%d-%d", t.Path(sp.File), sp.Start, sp.End)
}
